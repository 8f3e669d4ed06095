package gpu

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/iblviewer/internal/logger"
)

// ClearColor is the color every frame starts from.
var ClearColor = [4]float32{0, 0, 0, 1}

// SurfaceConfig configures InitializeSurface.
type SurfaceConfig struct {
	Width, Height int
	VSync         bool
	// SampleCount is the requested multisample count. Values above 1 fall
	// back to 1 when the device cannot provide them.
	SampleCount int
	// FeatureLevels overrides DefaultFeatureLevels.
	FeatureLevels []FeatureLevel
	Logger        *zap.Logger
}

// Surface owns the device, the swap chain, and the size-dependent render
// target and depth buffer. It is driven from the render thread only.
type Surface struct {
	adapter   Adapter
	device    Device
	context   Context
	swapchain Swapchain
	log       *zap.Logger

	rt      RenderTarget
	depth   DepthBuffer
	samples int
	vsync   bool

	width, height int
	guiWidth      int
	// lastGUIWidth is the gui width the current viewport was computed
	// from, or -1 when the viewport must be re-applied.
	lastGUIWidth int
	viewport     Viewport

	solid     RasterizerState
	wireframe RasterizerState
	depthTest DepthStencilState
}

// InitializeSurface creates a device at the highest available feature
// level, the swap chain, and the render target, depth buffer and viewport
// for a width x height window.
func InitializeSurface(adapter Adapter, cfg SurfaceConfig) (*Surface, error) {
	log := cfg.Logger
	log = logger.OrNop(log)
	levels := cfg.FeatureLevels
	if len(levels) == 0 {
		levels = DefaultFeatureLevels
	}

	var (
		dev     Device
		ctx     Context
		lastErr error
	)
	for _, level := range levels {
		d, c, err := adapter.CreateDevice(level)
		if err != nil {
			log.Debug("feature level unavailable", zap.Stringer("level", level), zap.Error(err))
			lastErr = err
			continue
		}
		dev, ctx = d, c
		break
	}
	if dev == nil {
		return nil, fmt.Errorf("%w: no feature level in %v: %v", ErrDeviceCreation, levels, lastErr)
	}

	if got := dev.FeatureLevel(); got.Less(MinFeatureLevel) {
		return nil, fmt.Errorf("%w: got %s, need %s", ErrFeatureLevelUnsupported, got, MinFeatureLevel)
	}

	samples := cfg.SampleCount
	if samples < 1 {
		samples = 1
	}
	if maxSamples := dev.MaxSamples(FormatRGBA8); samples > maxSamples {
		log.Warn("multisampling unavailable, falling back to 1x",
			zap.Int("requested", samples), zap.Int("max", maxSamples))
		samples = 1
	}

	sc, err := adapter.CreateSwapchain(dev, SwapchainDesc{
		Width:       cfg.Width,
		Height:      cfg.Height,
		BufferCount: 2,
		Format:      FormatRGBA8,
		VSync:       cfg.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: swap chain: %v", ErrDeviceCreation, err)
	}

	s := &Surface{
		adapter:      adapter,
		device:       dev,
		context:      ctx,
		swapchain:    sc,
		log:          log,
		samples:      samples,
		vsync:        cfg.VSync,
		width:        cfg.Width,
		height:       cfg.Height,
		lastGUIWidth: -1,
		solid:        RasterizerState{Fill: FillSolid, Cull: CullNone, DepthClip: true},
		wireframe:    RasterizerState{Fill: FillWireframe, Cull: CullNone, DepthClip: true},
		depthTest:    DepthStencilState{DepthEnable: true, DepthWrite: true, DepthFunc: CompareLessEqual},
	}

	if err := s.createTargets(); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: %v", ErrDeviceCreation, err)
	}
	s.ApplyViewport()

	log.Info("surface initialized",
		zap.Stringer("level", dev.FeatureLevel()),
		zap.Int("width", s.width),
		zap.Int("height", s.height),
		zap.Int("samples", samples))
	return s, nil
}

func (s *Surface) createTargets() error {
	rt, err := s.device.CreateRenderTarget(s.width, s.height, s.samples)
	if err != nil {
		return fmt.Errorf("render target: %w", err)
	}
	s.rt = rt

	db, err := s.device.CreateDepthBuffer(s.width, s.height, s.samples)
	if err != nil {
		return fmt.Errorf("depth buffer: %w", err)
	}
	s.depth = db
	return nil
}

func (s *Surface) releaseTargets() {
	if s.rt != nil {
		s.rt.Release()
		s.rt = nil
	}
	if s.depth != nil {
		s.depth.Release()
		s.depth = nil
	}
}

// Resize rebuilds the size-dependent resources. A zero width or height
// (minimized window) is ignored. Failures wrap ErrSurfaceResize and leave
// the surface without targets, so BeginFrame refuses further frames.
func (s *Surface) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		s.log.Debug("ignoring resize to empty surface", zap.Int("width", width), zap.Int("height", height))
		return nil
	}
	if width == s.width && height == s.height && s.rt != nil {
		return nil
	}

	// The swap chain cannot resize while a view onto it is alive.
	s.releaseTargets()

	if err := s.swapchain.ResizeBuffers(width, height); err != nil {
		return fmt.Errorf("%w: swap chain %dx%d: %v", ErrSurfaceResize, width, height, err)
	}
	s.width, s.height = width, height

	if err := s.createTargets(); err != nil {
		s.releaseTargets()
		return fmt.Errorf("%w: %v", ErrSurfaceResize, err)
	}

	// A GUI wider than the new surface would leave a negative viewport.
	s.SetGUIWidth(s.guiWidth)
	s.InvalidateViewport()
	s.ApplyViewport()

	s.log.Debug("surface resized", zap.Int("width", width), zap.Int("height", height))
	return nil
}

// ComputeViewport returns the 3D viewport: the screen minus a GUI panel of
// guiWidth pixels docked on the left.
func ComputeViewport(screenWidth, screenHeight, guiWidth int) Viewport {
	return Viewport{
		X:        float32(guiWidth),
		Y:        0,
		Width:    float32(screenWidth - guiWidth),
		Height:   float32(screenHeight),
		MinDepth: 0,
		MaxDepth: 1,
	}
}

// ApplyViewport submits the viewport when the GUI width changed since it
// was last applied. It reports whether a viewport was submitted.
func (s *Surface) ApplyViewport() bool {
	if s.guiWidth == s.lastGUIWidth {
		return false
	}
	s.viewport = ComputeViewport(s.width, s.height, s.guiWidth)
	s.context.SetViewport(s.viewport)
	s.lastGUIWidth = s.guiWidth
	return true
}

// SetGUIWidth records the width reserved by the GUI panel. It takes effect
// on the next ApplyViewport.
func (s *Surface) SetGUIWidth(w int) {
	if w < 0 {
		w = 0
	}
	if w > s.width {
		w = s.width
	}
	s.guiWidth = w
}

// InvalidateViewport forces the next ApplyViewport to submit. Call it after
// something else changed the context's viewport.
func (s *Surface) InvalidateViewport() {
	s.lastGUIWidth = -1
}

// AspectRatio is the aspect of the 3D viewport, or 1 when the viewport is
// empty.
func (s *Surface) AspectRatio() float32 {
	w := s.width - s.guiWidth
	if s.height <= 0 || w <= 0 {
		return 1
	}
	return float32(w) / float32(s.height)
}

// BeginFrame checks that the targets match the surface size, applies the
// viewport, clears both targets and binds them with the depth state.
func (s *Surface) BeginFrame() error {
	if s.rt == nil || s.depth == nil {
		return fmt.Errorf("%w: targets not created", ErrStaleSurface)
	}
	if w, h := s.rt.Size(); w != s.width || h != s.height {
		return fmt.Errorf("%w: render target %dx%d, surface %dx%d", ErrStaleSurface, w, h, s.width, s.height)
	}
	if w, h := s.depth.Size(); w != s.width || h != s.height {
		return fmt.Errorf("%w: depth buffer %dx%d, surface %dx%d", ErrStaleSurface, w, h, s.width, s.height)
	}

	s.ApplyViewport()
	s.context.ClearRenderTarget(s.rt, ClearColor)
	s.context.ClearDepthStencil(s.depth, 1, 0)
	s.context.SetRenderTargets(s.rt, s.depth)
	s.context.SetDepthStencilState(s.depthTest)
	return nil
}

// Resolve copies the rendered frame into the back buffer. Overlays drawn
// afterwards go straight to the back buffer.
func (s *Surface) Resolve() {
	if s.rt != nil {
		s.context.Resolve(s.rt)
	}
}

// Present shows the back buffer, waiting for vertical sync when enabled.
func (s *Surface) Present() error {
	interval := 0
	if s.vsync {
		interval = 1
	}
	return s.swapchain.Present(interval)
}

// Close releases all resources owned by the surface.
func (s *Surface) Close() {
	s.releaseTargets()
}

func (s *Surface) Device() Device { return s.device }
func (s *Surface) Context() Context { return s.context }
func (s *Surface) RenderTarget() RenderTarget { return s.rt }
func (s *Surface) DepthBuffer() DepthBuffer { return s.depth }
func (s *Surface) Samples() int { return s.samples }
func (s *Surface) Width() int { return s.width }
func (s *Surface) Height() int { return s.height }
func (s *Surface) GUIWidth() int { return s.guiWidth }
func (s *Surface) Viewport() Viewport { return s.viewport }
func (s *Surface) SolidState() RasterizerState { return s.solid }
func (s *Surface) WireframeState() RasterizerState { return s.wireframe }
func (s *Surface) DepthState() DepthStencilState { return s.depthTest }
