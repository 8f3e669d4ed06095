package ui2d

// Canvas is the drawing surface widgets lay out on. The GL Renderer is the
// production implementation.
type Canvas interface {
	DrawRect(x, y, width, height float32, color Color)
	DrawRectOutline(x, y, width, height, thickness float32, color Color)
	DrawPanel(x, y, width, height float32, bg, border Color)
	DrawText(x, y float32, text string, scale float32, color Color)
	MeasureText(text string, scale float32) (float32, float32)
	GetScreenSize() (int, int)
}
