package ui2d

import "fmt"

const (
	// TextScale is the glyph scale of every widget label.
	TextScale = float32(1)

	titleBarH  = float32(22)
	padding    = float32(8)
	defaultRow = float32(20)
	checkSize  = float32(14)
)

// frameCanvas is a canvas that batches between Begin and End.
type frameCanvas interface {
	Begin()
	End()
}

// Context is the main UI context that manages layout and input.
type Context struct {
	canvas Canvas
	input  *InputState

	// Active/hot widget tracking for interaction
	hotWidget    string
	activeWidget string

	windows map[string]*WindowState

	currentWindow *WindowState

	// Layout state
	cursorX float32
	cursorY float32
	rowH    float32
}

// WindowState holds state for a UI window.
type WindowState struct {
	ID     string
	X, Y   float32
	W, H   float32
	Open   bool
	Moving bool
}

// NewContext creates a UI context drawing with a GL renderer.
func NewContext(width, height int) (*Context, error) {
	r, err := New(width, height)
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	return NewContextWithCanvas(r), nil
}

// NewContextWithCanvas creates a UI context drawing on c.
func NewContextWithCanvas(c Canvas) *Context {
	return &Context{
		canvas:  c,
		input:   &InputState{},
		windows: make(map[string]*WindowState),
	}
}

// Close releases resources.
func (c *Context) Close() {
	if r, ok := c.canvas.(*Renderer); ok {
		r.Close()
	}
}

// Canvas returns the drawing surface.
func (c *Context) Canvas() Canvas {
	return c.canvas
}

// Resize updates the screen size.
func (c *Context) Resize(width, height int) {
	if r, ok := c.canvas.(*Renderer); ok {
		r.Resize(width, height)
	}
}

// Input returns the input state for modification.
func (c *Context) Input() *InputState {
	return c.input
}

// Begin starts a new UI frame.
func (c *Context) Begin() {
	c.input.Update()
	c.hotWidget = ""
	if fc, ok := c.canvas.(frameCanvas); ok {
		fc.Begin()
	}
}

// End finishes the UI frame and draws it.
func (c *Context) End() {
	if fc, ok := c.canvas.(frameCanvas); ok {
		fc.End()
	}
	c.input.EndFrame()
}

// WantsMouse reports whether the mouse is over an open window or a widget
// is being dragged, so the scene should ignore it.
func (c *Context) WantsMouse() bool {
	if c.activeWidget != "" {
		return true
	}
	for _, ws := range c.windows {
		if ws.Open && c.input.IsMouseInRect(ws.X, ws.Y, ws.W, ws.H) {
			return true
		}
	}
	return false
}

// BeginWindow starts a new window.
// Returns false if the window is closed.
func (c *Context) BeginWindow(id string, x, y, w, h float32, title string) bool {
	ws, ok := c.windows[id]
	if !ok {
		ws = &WindowState{ID: id, X: x, Y: y, W: w, H: h, Open: true}
		c.windows[id] = ws
	} else if !ws.Moving {
		// Follow the caller so docked windows track the screen size.
		ws.X, ws.Y, ws.W, ws.H = x, y, w, h
	}

	if !ws.Open {
		return false
	}
	c.currentWindow = ws

	titleBarRect := Rect{ws.X, ws.Y, ws.W, titleBarH}
	if c.input.MouseLeftPressed && titleBarRect.Contains(c.input.MouseX, c.input.MouseY) {
		ws.Moving = true
		c.activeWidget = id + "_titlebar"
	}
	if ws.Moving && c.input.MouseLeftDown {
		ws.X += c.input.MouseDeltaX
		ws.Y += c.input.MouseDeltaY
	}
	if c.input.MouseLeftReleased {
		ws.Moving = false
		if c.activeWidget == id+"_titlebar" {
			c.activeWidget = ""
		}
	}

	c.canvas.DrawPanel(ws.X, ws.Y, ws.W, ws.H, ColorPanelBg, ColorPanelBorder)
	c.canvas.DrawRect(ws.X+1, ws.Y+1, ws.W-2, titleBarH-1, ColorButtonNormal)
	_, textH := c.canvas.MeasureText(title, TextScale)
	c.canvas.DrawText(ws.X+padding, ws.Y+(titleBarH-textH)/2, title, TextScale, ColorText)

	c.cursorX = ws.X + padding
	c.cursorY = ws.Y + titleBarH + padding
	c.rowH = 0
	return true
}

// EndWindow ends the current window.
func (c *Context) EndWindow() {
	c.currentWindow = nil
}

// Window returns the state of window id.
func (c *Context) Window(id string) (*WindowState, bool) {
	ws, ok := c.windows[id]
	return ws, ok
}

// Row starts a new row with the given height.
func (c *Context) Row(height float32) {
	if c.currentWindow == nil {
		return
	}
	c.cursorX = c.currentWindow.X + padding
	c.cursorY += c.rowH + 4
	c.rowH = height
}

func (c *Context) contentWidth() float32 {
	return c.currentWindow.W - 2*padding
}

func (c *Context) rowHeight() float32 {
	if c.rowH == 0 {
		return defaultRow
	}
	return c.rowH
}

// Button draws a button and returns true if clicked.
func (c *Context) Button(id string, width float32, label string) bool {
	if c.currentWindow == nil {
		return false
	}

	x, y, h := c.cursorX, c.cursorY, c.rowHeight()
	if width == 0 {
		width = c.contentWidth()
	}

	fullID := c.currentWindow.ID + "_" + id
	rect := Rect{x, y, width, h}

	hovered := rect.Contains(c.input.MouseX, c.input.MouseY)
	clicked := false
	if hovered {
		c.hotWidget = fullID
		if c.input.MouseLeftPressed || c.input.MouseLeftClicked {
			c.activeWidget = fullID
			clicked = true
			// Consume the click event so only one button gets it
			c.input.MouseLeftClicked = false
		}
	}
	if c.activeWidget == fullID && c.input.MouseLeftReleased {
		c.activeWidget = ""
	}

	color := ColorButtonNormal
	if c.activeWidget == fullID {
		color = ColorButtonActive
	} else if hovered {
		color = ColorButtonHover
	}
	c.canvas.DrawRect(x, y, width, h, color)
	c.canvas.DrawRectOutline(x, y, width, h, 1, ColorPanelBorder)

	textW, textH := c.canvas.MeasureText(label, TextScale)
	c.canvas.DrawText(x+(width-textW)/2, y+(h-textH)/2, label, TextScale, ColorText)

	c.cursorX += width + 4
	return clicked
}

// Label draws a text label.
func (c *Context) Label(text string) {
	c.LabelColored(text, ColorText)
}

// LabelColored draws a text label with a specific color.
func (c *Context) LabelColored(text string, color Color) {
	if c.currentWindow == nil {
		return
	}
	c.canvas.DrawText(c.cursorX, c.cursorY, text, TextScale, color)
	w, _ := c.canvas.MeasureText(text, TextScale)
	c.cursorX += w + 4
}

// Separator draws a horizontal separator line.
func (c *Context) Separator() {
	if c.currentWindow == nil {
		return
	}
	c.cursorY += c.rowH + 4
	c.rowH = 0
	x := c.currentWindow.X + padding
	c.canvas.DrawRect(x, c.cursorY, c.contentWidth(), 1, ColorPanelBorder)
	c.cursorY += padding
	c.cursorX = x
}

// Selectable draws a selectable item and returns true if clicked.
func (c *Context) Selectable(id string, label string, selected bool) bool {
	if c.currentWindow == nil {
		return false
	}

	x, y, h := c.cursorX, c.cursorY, c.rowHeight()
	width := c.contentWidth()

	fullID := c.currentWindow.ID + "_" + id
	rect := Rect{x, y, width, h}

	hovered := rect.Contains(c.input.MouseX, c.input.MouseY)
	clicked := false
	if hovered {
		c.hotWidget = fullID
		if c.input.MouseLeftPressed {
			c.activeWidget = fullID
			clicked = true
		}
	}
	if c.activeWidget == fullID && c.input.MouseLeftReleased {
		c.activeWidget = ""
	}

	var bgColor Color
	switch {
	case selected:
		bgColor = ColorHighlight.WithAlpha(0.5)
	case c.activeWidget == fullID:
		bgColor = ColorButtonActive
	case hovered:
		bgColor = ColorButtonHover
	default:
		bgColor = ColorTransparent
	}
	if bgColor.A > 0 {
		c.canvas.DrawRect(x, y, width, h, bgColor)
	}

	_, textH := c.canvas.MeasureText(label, TextScale)
	c.canvas.DrawText(x+4, y+(h-textH)/2, label, TextScale, ColorText)

	c.cursorX = c.currentWindow.X + padding
	c.cursorY += h
	return clicked
}

// Checkbox draws a checkbox and returns the new state. It toggles when
// the button is released over the box it was pressed on.
func (c *Context) Checkbox(id string, label string, checked bool) bool {
	if c.currentWindow == nil {
		return checked
	}

	x, y := c.cursorX, c.cursorY
	fullID := c.currentWindow.ID + "_" + id
	rect := Rect{x, y, checkSize, checkSize}

	hovered := rect.Contains(c.input.MouseX, c.input.MouseY)
	if hovered && c.input.MouseLeftPressed {
		c.activeWidget = fullID
	}
	if c.activeWidget == fullID && c.input.MouseLeftReleased {
		if hovered {
			checked = !checked
		}
		c.activeWidget = ""
	}

	bgColor := ColorInputBg
	if hovered {
		bgColor = ColorButtonHover
	}
	c.canvas.DrawRect(x, y, checkSize, checkSize, bgColor)
	c.canvas.DrawRectOutline(x, y, checkSize, checkSize, 1, ColorPanelBorder)
	if checked {
		inner := float32(3)
		c.canvas.DrawRect(x+inner, y+inner, checkSize-inner*2, checkSize-inner*2, ColorHighlight)
	}

	labelW, textH := c.canvas.MeasureText(label, TextScale)
	c.canvas.DrawText(x+checkSize+6, y+(checkSize-textH)/2, label, TextScale, ColorText)

	c.cursorX += checkSize + 6 + labelW + 8
	return checked
}

// SliderFloat draws a horizontal slider for *v in [lo, hi] followed by a
// label. It reports whether *v changed.
func (c *Context) SliderFloat(id, label string, v *float32, lo, hi float32) bool {
	if c.currentWindow == nil || hi <= lo {
		return false
	}

	x, y, h := c.cursorX, c.cursorY, c.rowHeight()
	labelW, textH := c.canvas.MeasureText(label, TextScale)
	width := c.contentWidth() - (x - c.currentWindow.X - padding) - labelW - 8
	if width < 40 {
		width = 40
	}

	fullID := c.currentWindow.ID + "_" + id
	rect := Rect{x, y, width, h}
	hovered := rect.Contains(c.input.MouseX, c.input.MouseY)

	if hovered && c.input.MouseLeftPressed {
		c.activeWidget = fullID
	}
	changed := false
	if c.activeWidget == fullID {
		if c.input.MouseLeftDown || c.input.MouseLeftPressed {
			t := (c.input.MouseX - x) / width
			t = min(max(t, 0), 1)
			nv := lo + t*(hi-lo)
			if nv != *v {
				*v = nv
				changed = true
			}
		}
		if c.input.MouseLeftReleased {
			c.activeWidget = ""
		}
	}

	bg := ColorInputBg
	if c.activeWidget == fullID {
		bg = ColorButtonActive
	} else if hovered {
		bg = ColorButtonHover
	}
	c.canvas.DrawRect(x, y, width, h, bg)
	c.canvas.DrawRectOutline(x, y, width, h, 1, ColorInputBorder)

	t := min(max((*v-lo)/(hi-lo), 0), 1)
	grabW := float32(6)
	c.canvas.DrawRect(x+1+t*(width-2-grabW), y+1, grabW, h-2, ColorHighlight)

	value := fmt.Sprintf("%.3f", *v)
	valueW, _ := c.canvas.MeasureText(value, TextScale)
	c.canvas.DrawText(x+(width-valueW)/2, y+(h-textH)/2, value, TextScale, ColorText)
	c.canvas.DrawText(x+width+8, y+(h-textH)/2, label, TextScale, ColorText)

	c.cursorX = c.currentWindow.X + padding
	c.cursorY += h + 4
	c.rowH = 0
	return changed
}

// GetScreenSize returns the current screen dimensions.
func (c *Context) GetScreenSize() (float32, float32) {
	w, h := c.canvas.GetScreenSize()
	return float32(w), float32(h)
}

// Rect is a simple rectangle struct.
type Rect struct {
	X, Y, W, H float32
}

// Contains checks if a point is inside the rectangle.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}
