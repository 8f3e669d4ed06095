// Package app runs a demo inside the viewer's frame loop: input, resize
// handling, GUI, update, render and presentation.
package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/iblviewer/internal/engine/debug"
	"github.com/Faultbox/iblviewer/internal/engine/gpu"
	"github.com/Faultbox/iblviewer/internal/engine/input"
	"github.com/Faultbox/iblviewer/internal/engine/ui2d"
	"github.com/Faultbox/iblviewer/internal/logger"
)

// App is a demo driven by Host. All methods run on the render thread.
type App interface {
	// Initialize builds the scene. It runs once before the first frame.
	Initialize() error
	// UpdateGUI draws the controls and returns the width in pixels the GUI
	// reserves on the left of the screen.
	UpdateGUI(ui *ui2d.Context) int
	Update(dt float32) error
	Render() error
	// HandleEvent sees every event the GUI did not consume. It reports
	// whether the app consumed it.
	HandleEvent(ev input.Event) bool
	Close()
}

// ScreenshotRequester is implemented by apps that can ask for a
// screenshot of the current frame.
type ScreenshotRequester interface {
	TakeScreenshotRequest() bool
}

// EventSource supplies translated window events once per frame.
type EventSource interface {
	// Update polls pending events and reports whether quit was requested.
	Update() bool
	Events() []input.Event
}

// HostConfig holds the collaborators of a Host.
type HostConfig struct {
	Surface     *gpu.Surface
	UI          *ui2d.Context
	Events      EventSource
	Screenshots *debug.ScreenshotCapture // nil disables F12
	// LogFPS logs the frame rate once a second.
	LogFPS bool
	Logger *zap.Logger
}

// Host owns the frame loop.
type Host struct {
	surface *gpu.Surface
	ui      *ui2d.Context
	events  EventSource
	shots   *debug.ScreenshotCapture
	log     *zap.Logger
	app     App

	running       bool
	shotRequested bool
	frames        uint64
	logFPS        bool
	now           func() time.Time
}

// NewHost creates a host running app.
func NewHost(cfg HostConfig, app App) (*Host, error) {
	switch {
	case cfg.Surface == nil:
		return nil, errors.New("host: nil surface")
	case cfg.UI == nil:
		return nil, errors.New("host: nil ui")
	case cfg.Events == nil:
		return nil, errors.New("host: nil event source")
	case app == nil:
		return nil, errors.New("host: nil app")
	}
	log := cfg.Logger
	log = logger.OrNop(log)
	return &Host{
		surface: cfg.Surface,
		ui:      cfg.UI,
		events:  cfg.Events,
		shots:   cfg.Screenshots,
		log:     log,
		app:     app,
		logFPS:  cfg.LogFPS,
		now:     time.Now,
	}, nil
}

// Run initializes the app and loops until the window is closed or Escape
// is pressed. The app is closed on return.
func (h *Host) Run() error {
	defer h.app.Close()

	if err := h.app.Initialize(); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	h.running = true
	last := h.now()
	fpsTimer, fpsFrames := last, 0
	h.log.Info("starting frame loop")
	for h.running {
		now := h.now()
		dt := float32(now.Sub(last).Seconds())
		last = now

		if err := h.Frame(dt); err != nil {
			return err
		}

		fpsFrames++
		if elapsed := now.Sub(fpsTimer); h.logFPS && elapsed >= time.Second {
			h.log.Info("fps",
				zap.Float64("fps", float64(fpsFrames)/elapsed.Seconds()),
				zap.Float32("dt_ms", dt*1000))
			fpsTimer, fpsFrames = now, 0
		}
	}
	h.log.Info("frame loop stopped", zap.Uint64("frames", h.frames))
	return nil
}

// Stop ends the loop after the current frame.
func (h *Host) Stop() {
	h.running = false
}

// Running reports whether the loop continues.
func (h *Host) Running() bool { return h.running }

// Frame runs one iteration: events, GUI, update, render, resolve, GUI
// overlay and present. Resize and render failures are returned and end
// the loop.
func (h *Host) Frame(dt float32) error {
	if h.events.Update() {
		h.running = false
		return nil
	}
	for _, ev := range h.events.Events() {
		if err := h.dispatch(ev); err != nil {
			return err
		}
	}
	if !h.running {
		return nil
	}

	h.ui.Begin()
	h.surface.SetGUIWidth(h.app.UpdateGUI(h.ui))
	if r, ok := h.app.(ScreenshotRequester); ok && r.TakeScreenshotRequest() {
		h.shotRequested = true
	}

	if err := h.app.Update(dt); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if err := h.app.Render(); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	h.surface.Resolve()
	h.ui.End()

	if h.shotRequested {
		h.shotRequested = false
		h.captureScreenshot()
	}
	if err := h.surface.Present(); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	h.frames++
	return nil
}

func (h *Host) dispatch(ev input.Event) error {
	switch ev.Type {
	case input.EventQuit:
		h.running = false
		return nil
	case input.EventWindowResize:
		if err := h.surface.Resize(ev.Width, ev.Height); err != nil {
			return fmt.Errorf("resize: %w", err)
		}
		h.ui.Resize(ev.Width, ev.Height)
		h.app.HandleEvent(ev)
		return nil
	case input.EventKeyDown:
		switch ev.Key {
		case sdl.SCANCODE_ESCAPE:
			h.running = false
			return nil
		case sdl.SCANCODE_F12:
			if !ev.Repeat {
				h.shotRequested = true
			}
			return nil
		}
	case input.EventMouseMove, input.EventMouseDown, input.EventMouseUp, input.EventMouseWheel:
		h.feedUI(ev)
		if h.ui.WantsMouse() {
			return nil
		}
	}
	h.app.HandleEvent(ev)
	return nil
}

// feedUI copies mouse state into the GUI input.
func (h *Host) feedUI(ev input.Event) {
	in := h.ui.Input()
	switch ev.Type {
	case input.EventMouseMove:
		in.MouseX, in.MouseY = float32(ev.MouseX), float32(ev.MouseY)
	case input.EventMouseDown, input.EventMouseUp:
		in.MouseX, in.MouseY = float32(ev.MouseX), float32(ev.MouseY)
		down := ev.Type == input.EventMouseDown
		switch ev.Button {
		case input.ButtonLeft:
			if !down && in.MouseLeftDown {
				in.MouseLeftClicked = true
			}
			in.MouseLeftDown = down
		case input.ButtonRight:
			in.MouseRightDown = down
		}
	case input.EventMouseWheel:
		in.ScrollX += ev.WheelX
		in.ScrollY += ev.WheelY
	}
}

func (h *Host) captureScreenshot() {
	if h.shots == nil {
		return
	}
	path, err := h.shots.Capture(h.surface.Context(), h.surface.Width(), h.surface.Height())
	if err != nil {
		h.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	h.log.Info("screenshot saved", zap.String("path", path))
}
