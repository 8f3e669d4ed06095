package gpu

// Resource is any device object with an explicit lifetime.
type Resource interface {
	Release()
}

// Buffer is a vertex, index or constant buffer.
type Buffer interface {
	Resource
	Desc() BufferDesc
}

// Texture is a 2D or cube texture.
type Texture interface {
	Resource
	Desc() TextureDesc
}

// View is a shader-readable view of a texture.
type View interface {
	Resource
	Dimension() ViewDimension
}

// Program is a linked vertex and pixel stage plus its input layout.
type Program interface {
	Resource
	Name() string
}

// Sampler is a sampler state object.
type Sampler interface {
	Resource
}

// RenderTarget is the color attachment frames are drawn into.
type RenderTarget interface {
	Resource
	Size() (width, height int)
	Samples() int
}

// DepthBuffer is a depth-stencil attachment.
type DepthBuffer interface {
	Resource
	Size() (width, height int)
	Samples() int
}

// Device creates resources. Methods are called from the render thread only.
type Device interface {
	FeatureLevel() FeatureLevel
	// MaxSamples is the largest multisample count supported for format.
	MaxSamples(format TextureFormat) int

	CreateBuffer(desc BufferDesc, data []byte) (Buffer, error)
	// CreateTexture creates an immutable texture. For 2D textures levels
	// holds one slice per mip; for cubes it holds faces*mips slices, face-major.
	CreateTexture(desc TextureDesc, levels [][]byte) (Texture, error)
	CreateView(tex Texture) (View, error)
	CreateProgram(src ShaderSource) (Program, error)
	CreateSampler(desc SamplerDesc) (Sampler, error)
	CreateRenderTarget(width, height, samples int) (RenderTarget, error)
	CreateDepthBuffer(width, height, samples int) (DepthBuffer, error)
}

// Context records pipeline state and draws. It mirrors an immediate
// device context: every call takes effect in order.
type Context interface {
	SetViewport(v Viewport)
	ClearRenderTarget(rt RenderTarget, color [4]float32)
	ClearDepthStencil(db DepthBuffer, depth float32, stencil uint8)
	SetRenderTargets(rt RenderTarget, db DepthBuffer)
	SetDepthStencilState(s DepthStencilState)
	SetRasterizerState(s RasterizerState)

	SetProgram(p Program)
	SetVertexBuffer(b Buffer, stride int)
	SetIndexBuffer(b Buffer)
	SetTopology(t Topology)
	SetConstantBuffers(stage Stage, slot int, bufs ...Buffer)
	SetShaderViews(slot int, views ...View)
	SetSamplers(slot int, samplers ...Sampler)

	// UpdateBuffer replaces the whole contents of a dynamic buffer,
	// discarding the previous contents.
	UpdateBuffer(b Buffer, data []byte) error
	DrawIndexed(count int)

	// Resolve copies rt into the swap chain's back buffer.
	Resolve(rt RenderTarget)
	// ReadBackBuffer returns the back buffer as tightly packed RGBA8 rows,
	// bottom row first.
	ReadBackBuffer(width, height int) ([]byte, error)
}

// Swapchain owns the presentation buffers of a window.
type Swapchain interface {
	Size() (width, height int)
	ResizeBuffers(width, height int) error
	Present(syncInterval int) error
}

// Adapter creates devices and swap chains for one output window.
type Adapter interface {
	// CreateDevice returns a device at level (or a compatible newer one),
	// or an error if the driver cannot provide it.
	CreateDevice(level FeatureLevel) (Device, Context, error)
	CreateSwapchain(dev Device, desc SwapchainDesc) (Swapchain, error)
}
