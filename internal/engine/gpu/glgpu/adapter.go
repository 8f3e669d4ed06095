// Package glgpu implements the gpu interfaces on OpenGL 4.1+ core
// profile. Every call must be made on the thread that owns the context.
package glgpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/iblviewer/internal/engine/gpu"
	"github.com/Faultbox/iblviewer/internal/logger"
)

// Window is the native window the context renders into.
type Window interface {
	// CreateGLContext creates and makes current a core profile context of
	// at least the given version.
	CreateGLContext(major, minor int) error
	SwapWindow()
	SetSwapInterval(interval int) error
}

// Adapter creates the OpenGL device of a window.
type Adapter struct {
	win Window
	log *zap.Logger
}

// NewAdapter returns an adapter for win.
func NewAdapter(win Window, log *zap.Logger) *Adapter {
	log = logger.OrNop(log)
	return &Adapter{win: win, log: log}
}

var _ gpu.Adapter = (*Adapter)(nil)

// CreateDevice creates a context of the requested version and loads the
// GL entry points.
func (a *Adapter) CreateDevice(level gpu.FeatureLevel) (gpu.Device, gpu.Context, error) {
	if err := a.win.CreateGLContext(level.Major, level.Minor); err != nil {
		return nil, nil, err
	}
	if err := gl.Init(); err != nil {
		return nil, nil, fmt.Errorf("load OpenGL: %w", err)
	}

	var major, minor int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MINOR_VERSION, &minor)

	dev := &Device{
		level: gpu.FeatureLevel{Major: int(major), Minor: int(minor)},
		log:   a.log,
	}
	a.log.Info("OpenGL context created",
		zap.Stringer("version", dev.level),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.String("vendor", gl.GoStr(gl.GetString(gl.VENDOR))))

	gl.Enable(gl.TEXTURE_CUBE_MAP_SEAMLESS)

	ctx := newContext(a.log)
	return dev, ctx, nil
}

// CreateSwapchain wraps the window's default framebuffer.
func (a *Adapter) CreateSwapchain(dev gpu.Device, desc gpu.SwapchainDesc) (gpu.Swapchain, error) {
	if _, ok := dev.(*Device); !ok {
		return nil, fmt.Errorf("foreign device %T", dev)
	}
	return &swapchain{win: a.win, width: desc.Width, height: desc.Height, interval: -1}, nil
}

// swapchain presents the default framebuffer. Its size follows the window,
// so resizing only records the new size.
type swapchain struct {
	win           Window
	width, height int
	interval      int
}

func (s *swapchain) Size() (width, height int) { return s.width, s.height }

func (s *swapchain) ResizeBuffers(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid size %dx%d", width, height)
	}
	s.width, s.height = width, height
	return nil
}

func (s *swapchain) Present(syncInterval int) error {
	if syncInterval != s.interval {
		if err := s.win.SetSwapInterval(syncInterval); err != nil {
			return fmt.Errorf("swap interval %d: %w", syncInterval, err)
		}
		s.interval = syncInterval
	}
	s.win.SwapWindow()
	return nil
}
