// Package gputest provides a recording in-memory implementation of the gpu
// interfaces for tests that must not touch a real driver.
package gputest

import (
	"fmt"

	"github.com/Faultbox/iblviewer/internal/engine/gpu"
)

// Buffer is a recorded buffer.
type Buffer struct {
	ID       int
	D        gpu.BufferDesc
	Data     []byte
	Updates  int
	Released bool
	Releases int
}

func (b *Buffer) Release() {
	b.Released = true
	b.Releases++
}
func (b *Buffer) Desc() gpu.BufferDesc { return b.D }

// Texture is a recorded texture.
type Texture struct {
	ID       int
	D        gpu.TextureDesc
	Levels   [][]byte
	Released bool
}

func (t *Texture) Release() { t.Released = true }
func (t *Texture) Desc() gpu.TextureDesc { return t.D }

// View is a recorded shader view.
type View struct {
	ID       int
	Tex      *Texture
	Released bool
}

func (v *View) Release() { v.Released = true }

func (v *View) Dimension() gpu.ViewDimension {
	if v.Tex != nil && v.Tex.D.Cube {
		return gpu.ViewTextureCube
	}
	return gpu.ViewTexture2D
}

// Program is a recorded program.
type Program struct {
	ID       int
	Src      gpu.ShaderSource
	Released bool
}

func (p *Program) Release() { p.Released = true }
func (p *Program) Name() string { return p.Src.Name }

// Sampler is a recorded sampler.
type Sampler struct {
	ID       int
	D        gpu.SamplerDesc
	Released bool
}

func (s *Sampler) Release() { s.Released = true }

// Target is a recorded render target or depth buffer.
type Target struct {
	ID            int
	Depth         bool
	Width, Height int
	N             int
	Released      bool
}

func (t *Target) Release() { t.Released = true }
func (t *Target) Size() (width, height int) { return t.Width, t.Height }
func (t *Target) Samples() int { return t.N }

// State is the pipeline state bound at the time of a call.
type State struct {
	Program      gpu.Program
	VertexBuffer gpu.Buffer
	VertexStride int
	IndexBuffer  gpu.Buffer
	Topology     gpu.Topology
	Rasterizer   gpu.RasterizerState
	Depth        gpu.DepthStencilState
	VSConstants  map[int]gpu.Buffer
	PSConstants  map[int]gpu.Buffer
	Views        map[int]gpu.View
	Samplers     map[int]gpu.Sampler
	RenderTarget gpu.RenderTarget
	DepthBuffer  gpu.DepthBuffer
	Viewport     gpu.Viewport
}

func (s State) clone() State {
	c := s
	c.VSConstants = cloneMap(s.VSConstants)
	c.PSConstants = cloneMap(s.PSConstants)
	c.Views = cloneMap(s.Views)
	c.Samplers = cloneMap(s.Samplers)
	return c
}

func cloneMap[V any](m map[int]V) map[int]V {
	c := make(map[int]V, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Call is one recorded context or swap chain operation.
type Call struct {
	Op    string
	Count int // index count for DrawIndexed
	State State
}

// Recorder implements gpu.Adapter, gpu.Device, gpu.Context and
// gpu.Swapchain, recording every context call.
type Recorder struct {
	// Levels lists the feature levels CreateDevice accepts. Nil accepts all.
	Levels []gpu.FeatureLevel
	// MaxSampleCount is returned by MaxSamples. Zero means 8.
	MaxSampleCount int

	FailSwapchain    error
	FailResize       error
	FailRenderTarget error
	FailDepthBuffer  error
	FailProgram      error
	FailTexture      error

	Calls    []Call
	Presents []int

	Buffers      []*Buffer
	Textures     []*Texture
	Programs     []*Program
	Targets      []*Target
	DeviceLevels []gpu.FeatureLevel // every level CreateDevice was asked for

	level        gpu.FeatureLevel
	swapW, swapH int
	nextID       int
	state        State
	backBuffer   []byte
}

// New returns a recorder accepting every feature level.
func New() *Recorder {
	return &Recorder{}
}

var (
	_ gpu.Adapter   = (*Recorder)(nil)
	_ gpu.Device    = (*Recorder)(nil)
	_ gpu.Context   = (*Recorder)(nil)
	_ gpu.Swapchain = (*Recorder)(nil)
)

func (r *Recorder) id() int {
	r.nextID++
	return r.nextID
}

func (r *Recorder) record(op string, count int) {
	r.Calls = append(r.Calls, Call{Op: op, Count: count, State: r.state.clone()})
}

// Reset forgets recorded calls but keeps resources and bound state.
func (r *Recorder) Reset() {
	r.Calls = nil
	r.Presents = nil
}

// Ops returns the operation names in call order.
func (r *Recorder) Ops() []string {
	ops := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		ops[i] = c.Op
	}
	return ops
}

// CallsOf returns the recorded calls named op.
func (r *Recorder) CallsOf(op string) []Call {
	var out []Call
	for _, c := range r.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Draws returns the DrawIndexed calls.
func (r *Recorder) Draws() []Call {
	return r.CallsOf("DrawIndexed")
}

// Adapter

func (r *Recorder) CreateDevice(level gpu.FeatureLevel) (gpu.Device, gpu.Context, error) {
	r.DeviceLevels = append(r.DeviceLevels, level)
	if r.Levels != nil {
		ok := false
		for _, l := range r.Levels {
			if l == level {
				ok = true
				break
			}
		}
		if !ok {
			return nil, nil, fmt.Errorf("level %s not available", level)
		}
	}
	r.level = level
	return r, r, nil
}

func (r *Recorder) CreateSwapchain(dev gpu.Device, desc gpu.SwapchainDesc) (gpu.Swapchain, error) {
	if r.FailSwapchain != nil {
		return nil, r.FailSwapchain
	}
	r.swapW, r.swapH = desc.Width, desc.Height
	return r, nil
}

// Device

func (r *Recorder) FeatureLevel() gpu.FeatureLevel { return r.level }

func (r *Recorder) MaxSamples(format gpu.TextureFormat) int {
	if r.MaxSampleCount == 0 {
		return 8
	}
	return r.MaxSampleCount
}

func (r *Recorder) CreateBuffer(desc gpu.BufferDesc, data []byte) (gpu.Buffer, error) {
	if desc.Size <= 0 {
		return nil, fmt.Errorf("buffer size %d", desc.Size)
	}
	if desc.Usage == gpu.UsageImmutable && len(data) == 0 {
		return nil, fmt.Errorf("immutable buffer without initial data")
	}
	b := &Buffer{ID: r.id(), D: desc, Data: append([]byte(nil), data...)}
	r.Buffers = append(r.Buffers, b)
	return b, nil
}

func (r *Recorder) CreateTexture(desc gpu.TextureDesc, levels [][]byte) (gpu.Texture, error) {
	if r.FailTexture != nil {
		return nil, r.FailTexture
	}
	t := &Texture{ID: r.id(), D: desc, Levels: levels}
	r.Textures = append(r.Textures, t)
	return t, nil
}

func (r *Recorder) CreateView(tex gpu.Texture) (gpu.View, error) {
	t, ok := tex.(*Texture)
	if !ok {
		return nil, fmt.Errorf("foreign texture %T", tex)
	}
	return &View{ID: r.id(), Tex: t}, nil
}

func (r *Recorder) CreateProgram(src gpu.ShaderSource) (gpu.Program, error) {
	if r.FailProgram != nil {
		return nil, fmt.Errorf("%w: %s: %v", gpu.ErrShaderCompile, src.Name, r.FailProgram)
	}
	p := &Program{ID: r.id(), Src: src}
	r.Programs = append(r.Programs, p)
	return p, nil
}

func (r *Recorder) CreateSampler(desc gpu.SamplerDesc) (gpu.Sampler, error) {
	return &Sampler{ID: r.id(), D: desc}, nil
}

func (r *Recorder) CreateRenderTarget(width, height, samples int) (gpu.RenderTarget, error) {
	if r.FailRenderTarget != nil {
		return nil, r.FailRenderTarget
	}
	t := &Target{ID: r.id(), Width: width, Height: height, N: samples}
	r.Targets = append(r.Targets, t)
	return t, nil
}

func (r *Recorder) CreateDepthBuffer(width, height, samples int) (gpu.DepthBuffer, error) {
	if r.FailDepthBuffer != nil {
		return nil, r.FailDepthBuffer
	}
	t := &Target{ID: r.id(), Depth: true, Width: width, Height: height, N: samples}
	r.Targets = append(r.Targets, t)
	return t, nil
}

// Context

func (r *Recorder) SetViewport(v gpu.Viewport) {
	r.state.Viewport = v
	r.record("SetViewport", 0)
}

func (r *Recorder) ClearRenderTarget(rt gpu.RenderTarget, color [4]float32) {
	r.record("ClearRenderTarget", 0)
}

func (r *Recorder) ClearDepthStencil(db gpu.DepthBuffer, depth float32, stencil uint8) {
	r.record("ClearDepthStencil", 0)
}

func (r *Recorder) SetRenderTargets(rt gpu.RenderTarget, db gpu.DepthBuffer) {
	r.state.RenderTarget, r.state.DepthBuffer = rt, db
	r.record("SetRenderTargets", 0)
}

func (r *Recorder) SetDepthStencilState(s gpu.DepthStencilState) {
	r.state.Depth = s
	r.record("SetDepthStencilState", 0)
}

func (r *Recorder) SetRasterizerState(s gpu.RasterizerState) {
	r.state.Rasterizer = s
	r.record("SetRasterizerState", 0)
}

func (r *Recorder) SetProgram(p gpu.Program) {
	r.state.Program = p
	r.record("SetProgram", 0)
}

func (r *Recorder) SetVertexBuffer(b gpu.Buffer, stride int) {
	r.state.VertexBuffer, r.state.VertexStride = b, stride
	r.record("SetVertexBuffer", 0)
}

func (r *Recorder) SetIndexBuffer(b gpu.Buffer) {
	r.state.IndexBuffer = b
	r.record("SetIndexBuffer", 0)
}

func (r *Recorder) SetTopology(t gpu.Topology) {
	r.state.Topology = t
	r.record("SetTopology", 0)
}

func (r *Recorder) SetConstantBuffers(stage gpu.Stage, slot int, bufs ...gpu.Buffer) {
	m := &r.state.VSConstants
	if stage == gpu.StagePixel {
		m = &r.state.PSConstants
	}
	if *m == nil {
		*m = make(map[int]gpu.Buffer)
	}
	for i, b := range bufs {
		(*m)[slot+i] = b
	}
	r.record("SetConstantBuffers", 0)
}

func (r *Recorder) SetShaderViews(slot int, views ...gpu.View) {
	if r.state.Views == nil {
		r.state.Views = make(map[int]gpu.View)
	}
	for i, v := range views {
		r.state.Views[slot+i] = v
	}
	r.record("SetShaderViews", 0)
}

func (r *Recorder) SetSamplers(slot int, samplers ...gpu.Sampler) {
	if r.state.Samplers == nil {
		r.state.Samplers = make(map[int]gpu.Sampler)
	}
	for i, s := range samplers {
		r.state.Samplers[slot+i] = s
	}
	r.record("SetSamplers", 0)
}

func (r *Recorder) UpdateBuffer(b gpu.Buffer, data []byte) error {
	if b == nil {
		return gpu.ErrNilBuffer
	}
	fb, ok := b.(*Buffer)
	if !ok {
		return fmt.Errorf("foreign buffer %T", b)
	}
	if fb.Released {
		return gpu.ErrReleased
	}
	if fb.D.Usage != gpu.UsageDynamic {
		return fmt.Errorf("buffer %d is not dynamic", fb.ID)
	}
	if len(data) > fb.D.Size {
		return fmt.Errorf("update of %d bytes exceeds buffer size %d", len(data), fb.D.Size)
	}
	fb.Data = append(fb.Data[:0], data...)
	fb.Updates++
	r.record("UpdateBuffer", 0)
	return nil
}

func (r *Recorder) DrawIndexed(count int) {
	r.record("DrawIndexed", count)
}

func (r *Recorder) Resolve(rt gpu.RenderTarget) {
	r.record("Resolve", 0)
}

// SetBackBuffer sets the pixels ReadBackBuffer returns.
func (r *Recorder) SetBackBuffer(pix []byte) {
	r.backBuffer = pix
}

func (r *Recorder) ReadBackBuffer(width, height int) ([]byte, error) {
	if len(r.backBuffer) != width*height*4 {
		return nil, fmt.Errorf("back buffer holds %d bytes, want %d", len(r.backBuffer), width*height*4)
	}
	return append([]byte(nil), r.backBuffer...), nil
}

// Swapchain

func (r *Recorder) Size() (width, height int) { return r.swapW, r.swapH }

func (r *Recorder) ResizeBuffers(width, height int) error {
	if r.FailResize != nil {
		return r.FailResize
	}
	for _, t := range r.Targets {
		if !t.Depth && !t.Released {
			return fmt.Errorf("render target %d still alive during resize", t.ID)
		}
	}
	r.swapW, r.swapH = width, height
	r.record("ResizeBuffers", 0)
	return nil
}

func (r *Recorder) Present(syncInterval int) error {
	r.Presents = append(r.Presents, syncInterval)
	r.record("Present", 0)
	return nil
}
