package app

import (
	"errors"
	"os"
	"testing"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/iblviewer/internal/engine/debug"
	"github.com/Faultbox/iblviewer/internal/engine/gpu"
	"github.com/Faultbox/iblviewer/internal/engine/gpu/gputest"
	"github.com/Faultbox/iblviewer/internal/engine/input"
	"github.com/Faultbox/iblviewer/internal/engine/ui2d"
)

type nullCanvas struct{}

func (nullCanvas) DrawRect(x, y, width, height float32, color ui2d.Color)                   {}
func (nullCanvas) DrawRectOutline(x, y, width, height, thickness float32, color ui2d.Color) {}
func (nullCanvas) DrawPanel(x, y, width, height float32, bg, border ui2d.Color)             {}
func (nullCanvas) DrawText(x, y float32, text string, scale float32, color ui2d.Color)      {}
func (nullCanvas) MeasureText(text string, scale float32) (float32, float32) {
	return float32(len(text) * 7), 13
}
func (nullCanvas) GetScreenSize() (int, int) { return 4, 2 }

type scriptedEvents struct {
	frames [][]input.Event
	quit   bool
	cur    []input.Event
}

func (s *scriptedEvents) Update() bool {
	if s.quit {
		return true
	}
	s.cur = nil
	if len(s.frames) > 0 {
		s.cur, s.frames = s.frames[0], s.frames[1:]
	}
	return false
}

func (s *scriptedEvents) Events() []input.Event { return s.cur }

type fakeApp struct {
	ops       []string
	guiWidth  int
	events    []input.Event
	renderErr error
	initErr   error
	shot      bool
	closed    bool
}

func (a *fakeApp) Initialize() error { a.ops = append(a.ops, "init"); return a.initErr }

func (a *fakeApp) UpdateGUI(ui *ui2d.Context) int {
	a.ops = append(a.ops, "gui")
	ui.BeginWindow("panel", 0, 0, 100, 100, "Panel")
	ui.EndWindow()
	return a.guiWidth
}

func (a *fakeApp) Update(dt float32) error { a.ops = append(a.ops, "update"); return nil }
func (a *fakeApp) Render() error           { a.ops = append(a.ops, "render"); return a.renderErr }

func (a *fakeApp) HandleEvent(ev input.Event) bool {
	a.events = append(a.events, ev)
	return true
}

func (a *fakeApp) Close() { a.closed = true }

func (a *fakeApp) TakeScreenshotRequest() bool {
	req := a.shot
	a.shot = false
	return req
}

type hostFixture struct {
	rec    *gputest.Recorder
	events *scriptedEvents
	app    *fakeApp
	host   *Host
	shots  string
}

func newHostFixture(t *testing.T, frames ...[]input.Event) *hostFixture {
	t.Helper()
	rec := gputest.New()
	s, err := gpu.InitializeSurface(rec, gpu.SurfaceConfig{Width: 400, Height: 300})
	if err != nil {
		t.Fatalf("InitializeSurface: %v", err)
	}
	f := &hostFixture{
		rec:    rec,
		events: &scriptedEvents{frames: frames},
		app:    &fakeApp{},
		shots:  t.TempDir(),
	}
	f.host, err = NewHost(HostConfig{
		Surface:     s,
		UI:          ui2d.NewContextWithCanvas(nullCanvas{}),
		Events:      f.events,
		Screenshots: debug.NewScreenshotCapture(f.shots, "shot"),
	}, f.app)
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	f.host.running = true
	return f
}

func (f *hostFixture) screenshots(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(f.shots)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	return len(entries)
}

func TestNewHostRequiresCollaborators(t *testing.T) {
	rec := gputest.New()
	s, err := gpu.InitializeSurface(rec, gpu.SurfaceConfig{Width: 4, Height: 2})
	if err != nil {
		t.Fatalf("InitializeSurface: %v", err)
	}
	ui := ui2d.NewContextWithCanvas(nullCanvas{})
	ev := &scriptedEvents{}
	tests := []struct {
		name string
		cfg  HostConfig
		app  App
	}{
		{"surface", HostConfig{UI: ui, Events: ev}, &fakeApp{}},
		{"ui", HostConfig{Surface: s, Events: ev}, &fakeApp{}},
		{"events", HostConfig{Surface: s, UI: ui}, &fakeApp{}},
		{"app", HostConfig{Surface: s, UI: ui, Events: ev}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewHost(tt.cfg, tt.app); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFrameOrder(t *testing.T) {
	f := newHostFixture(t)
	f.app.guiWidth = 120

	if err := f.host.Frame(0.016); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	want := []string{"gui", "update", "render"}
	if len(f.app.ops) != len(want) {
		t.Fatalf("ops = %v, want %v", f.app.ops, want)
	}
	for i := range want {
		if f.app.ops[i] != want[i] {
			t.Errorf("ops[%d] = %q, want %q", i, f.app.ops[i], want[i])
		}
	}
	if got := f.host.surface.GUIWidth(); got != 120 {
		t.Errorf("gui width = %d, want 120", got)
	}
	ops := f.rec.Ops()
	if n := len(ops); n < 2 || ops[n-2] != "Resolve" || ops[n-1] != "Present" {
		t.Errorf("frame should end with Resolve, Present: %v", ops)
	}
}

func TestResizeHandledBeforeUpdate(t *testing.T) {
	f := newHostFixture(t, []input.Event{{Type: input.EventWindowResize, Width: 640, Height: 480}})

	if err := f.host.Frame(0.016); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if w, h := f.host.surface.Width(), f.host.surface.Height(); w != 640 || h != 480 {
		t.Errorf("surface = %dx%d, want 640x480", w, h)
	}
	if len(f.rec.CallsOf("ResizeBuffers")) != 1 {
		t.Error("swap chain was not resized")
	}
	if len(f.app.events) != 1 || f.app.events[0].Type != input.EventWindowResize {
		t.Errorf("app events = %v", f.app.events)
	}
}

func TestResizeFailureIsFatal(t *testing.T) {
	f := newHostFixture(t, []input.Event{{Type: input.EventWindowResize, Width: 640, Height: 480}})
	f.rec.FailResize = errors.New("device removed")

	err := f.host.Frame(0.016)
	if !errors.Is(err, gpu.ErrSurfaceResize) {
		t.Fatalf("err = %v, want ErrSurfaceResize", err)
	}
	if len(f.app.ops) != 0 {
		t.Errorf("app ran after failed resize: %v", f.app.ops)
	}
}

func TestStopConditions(t *testing.T) {
	tests := []struct {
		name   string
		quit   bool
		events []input.Event
	}{
		{"window closed", true, nil},
		{"quit event", false, []input.Event{{Type: input.EventQuit}}},
		{"escape", false, []input.Event{{Type: input.EventKeyDown, Key: sdl.SCANCODE_ESCAPE}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHostFixture(t, tt.events)
			f.events.quit = tt.quit
			if err := f.host.Frame(0.016); err != nil {
				t.Fatalf("Frame: %v", err)
			}
			if f.host.Running() {
				t.Error("host still running")
			}
			if len(f.app.ops) != 0 {
				t.Errorf("app ran: %v", f.app.ops)
			}
			if len(f.rec.Presents) != 0 {
				t.Error("frame presented after stop")
			}
		})
	}
}

func TestRenderErrorEndsLoop(t *testing.T) {
	f := newHostFixture(t)
	f.app.renderErr = gpu.ErrStaleSurface

	if err := f.host.Frame(0.016); !errors.Is(err, gpu.ErrStaleSurface) {
		t.Errorf("err = %v, want ErrStaleSurface", err)
	}
	if len(f.rec.Presents) != 0 {
		t.Error("failed frame was presented")
	}
}

func TestScreenshot(t *testing.T) {
	tests := []struct {
		name   string
		events []input.Event
		button bool
		want   int
	}{
		{"F12", []input.Event{{Type: input.EventKeyDown, Key: sdl.SCANCODE_F12}}, false, 1},
		{"F12 repeat", []input.Event{{Type: input.EventKeyDown, Key: sdl.SCANCODE_F12, Repeat: true}}, false, 0},
		{"gui button", nil, true, 1},
		{"none", nil, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHostFixture(t, tt.events)
			f.app.shot = tt.button
			f.rec.SetBackBuffer(make([]byte, 400*300*4))

			if err := f.host.Frame(0.016); err != nil {
				t.Fatalf("Frame: %v", err)
			}
			if got := f.screenshots(t); got != tt.want {
				t.Errorf("screenshots = %d, want %d", got, tt.want)
			}
			if len(f.rec.Presents) != 1 {
				t.Errorf("presents = %d, want 1", len(f.rec.Presents))
			}
		})
	}
}

func TestScreenshotFailureIsLogged(t *testing.T) {
	f := newHostFixture(t, []input.Event{{Type: input.EventKeyDown, Key: sdl.SCANCODE_F12}})
	// no back buffer set: the read back fails

	if err := f.host.Frame(0.016); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if len(f.rec.Presents) != 1 {
		t.Error("frame not presented after failed screenshot")
	}
}

func TestMouseOverGUIIsConsumed(t *testing.T) {
	f := newHostFixture(t,
		nil,
		[]input.Event{{Type: input.EventMouseMove, MouseX: 10, MouseY: 10}},
		[]input.Event{{Type: input.EventMouseMove, MouseX: 300, MouseY: 200}},
	)
	for i := 0; i < 3; i++ {
		if err := f.host.Frame(0.016); err != nil {
			t.Fatalf("Frame %d: %v", i, err)
		}
	}
	if len(f.app.events) != 1 {
		t.Fatalf("app saw %d mouse events, want 1", len(f.app.events))
	}
	if ev := f.app.events[0]; ev.MouseX != 300 {
		t.Errorf("app saw event at x=%d, want 300", ev.MouseX)
	}
	if in := f.host.ui.Input(); in.MouseX != 300 || in.MouseY != 200 {
		t.Errorf("ui mouse = (%v, %v)", in.MouseX, in.MouseY)
	}
}

func TestRunInitializeError(t *testing.T) {
	f := newHostFixture(t)
	f.app.initErr = errors.New("missing cubemap")

	if err := f.host.Run(); err == nil {
		t.Fatal("expected error")
	}
	if !f.app.closed {
		t.Error("app not closed")
	}
}

func TestRunUntilQuit(t *testing.T) {
	f := newHostFixture(t, nil, nil, []input.Event{{Type: input.EventQuit}})

	if err := f.host.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := len(f.rec.Presents); got != 2 {
		t.Errorf("presents = %d, want 2", got)
	}
	if f.host.frames != 2 || !f.app.closed {
		t.Errorf("frames = %d closed = %v", f.host.frames, f.app.closed)
	}
}
