// Package gpu defines the device abstraction the renderer is written
// against and the presentation surface built on top of it.
package gpu

import "fmt"

// FeatureLevel is a graphics API version the device can be created at.
type FeatureLevel struct {
	Major, Minor int
}

// Less reports whether l is an older level than o.
func (l FeatureLevel) Less(o FeatureLevel) bool {
	if l.Major != o.Major {
		return l.Major < o.Major
	}
	return l.Minor < o.Minor
}

func (l FeatureLevel) String() string {
	return fmt.Sprintf("%d.%d", l.Major, l.Minor)
}

var (
	// DefaultFeatureLevels is tried in order; the first one that creates wins.
	DefaultFeatureLevels = []FeatureLevel{{4, 6}, {4, 5}, {4, 3}, {4, 1}, {3, 3}}
	// MinFeatureLevel is the oldest level the shaders run on.
	MinFeatureLevel = FeatureLevel{4, 1}
)

// BufferKind selects how a buffer is bound.
type BufferKind int

const (
	BufferVertex BufferKind = iota
	BufferIndex
	BufferConstant
)

func (k BufferKind) String() string {
	switch k {
	case BufferVertex:
		return "vertex"
	case BufferIndex:
		return "index"
	case BufferConstant:
		return "constant"
	}
	return fmt.Sprintf("BufferKind(%d)", int(k))
}

// Usage describes how often a resource is written by the CPU.
type Usage int

const (
	// UsageImmutable resources are initialized once and never written again.
	UsageImmutable Usage = iota
	// UsageDynamic resources are rewritten wholesale with discard semantics.
	UsageDynamic
)

// BufferDesc describes a buffer at creation time.
type BufferDesc struct {
	Kind   BufferKind
	Usage  Usage
	Size   int // bytes
	Stride int // bytes per element, 0 for constant buffers
}

// TextureFormat is the texel layout of a texture.
type TextureFormat int

const (
	FormatUnknown TextureFormat = iota
	FormatRGBA8
	FormatRGBA8SRGB
	FormatBGRA8
	FormatRGBA16F
	FormatRGBA32F
	FormatBC1
	FormatBC2
	FormatBC3
	FormatBC6HUF16
	FormatBC6HSF16
	FormatBC7
	FormatBC7SRGB
	FormatDepth24Stencil8
)

var formatNames = map[TextureFormat]string{
	FormatRGBA8:           "RGBA8",
	FormatRGBA8SRGB:       "RGBA8_SRGB",
	FormatBGRA8:           "BGRA8",
	FormatRGBA16F:         "RGBA16F",
	FormatRGBA32F:         "RGBA32F",
	FormatBC1:             "BC1",
	FormatBC2:             "BC2",
	FormatBC3:             "BC3",
	FormatBC6HUF16:        "BC6H_UF16",
	FormatBC6HSF16:        "BC6H_SF16",
	FormatBC7:             "BC7",
	FormatBC7SRGB:         "BC7_SRGB",
	FormatDepth24Stencil8: "D24S8",
}

func (f TextureFormat) String() string {
	if n, ok := formatNames[f]; ok {
		return n
	}
	return "unknown"
}

// Compressed reports whether f is a 4x4 block-compressed format.
func (f TextureFormat) Compressed() bool {
	return f >= FormatBC1 && f <= FormatBC7SRGB
}

// TextureDesc describes a 2D or cube texture.
type TextureDesc struct {
	Width, Height int
	MipLevels     int
	Format        TextureFormat
	Cube          bool
}

// ViewDimension is how a shader view samples its texture.
type ViewDimension int

const (
	ViewTexture2D ViewDimension = iota
	ViewTextureCube
)

// Stage identifies a programmable pipeline stage.
type Stage int

const (
	StageVertex Stage = iota
	StagePixel
)

// Topology is the primitive assembly mode.
type Topology int

const (
	TriangleList Topology = iota
	LineList
)

func (t Topology) String() string {
	if t == LineList {
		return "line-list"
	}
	return "triangle-list"
}

// FillMode selects solid or wireframe rasterization.
type FillMode int

const (
	FillSolid FillMode = iota
	FillWireframe
)

// CullMode selects which faces are discarded.
type CullMode int

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

// RasterizerState configures rasterization. It is a plain value; backends
// translate it on every bind.
type RasterizerState struct {
	Fill      FillMode
	Cull      CullMode
	DepthClip bool
}

// CompareFunc is a depth comparison.
type CompareFunc int

const (
	CompareLess CompareFunc = iota
	CompareLessEqual
	CompareAlways
)

// DepthStencilState configures depth testing.
type DepthStencilState struct {
	DepthEnable bool
	DepthWrite  bool
	DepthFunc   CompareFunc
}

// Filter is a sampler filter mode.
type Filter int

const (
	FilterLinear Filter = iota
	FilterNearest
)

// AddressMode is a sampler wrap mode.
type AddressMode int

const (
	AddressWrap AddressMode = iota
	AddressClamp
)

// SamplerDesc describes a sampler state object.
type SamplerDesc struct {
	Filter  Filter
	Address AddressMode
	MinLOD  float32
	MaxLOD  float32
}

// Viewport is a rectangle of the render target in pixels plus depth range.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// VertexFormat is the type of a vertex attribute.
type VertexFormat int

const (
	Float2 VertexFormat = iota
	Float3
	Float4
)

// Components returns the number of float components.
func (f VertexFormat) Components() int {
	return int(f) + 2
}

// InputElement is one attribute of the input layout. Elements are bound
// to attribute locations in declaration order.
type InputElement struct {
	Semantic string
	Format   VertexFormat
	Offset   int
}

// InputLayout describes the vertex format a program consumes.
type InputLayout struct {
	Elements []InputElement
	Stride   int
}

// BlockBinding ties a named constant block in a shader to a stage slot.
type BlockBinding struct {
	Name  string
	Stage Stage
	Slot  int
}

// TextureBinding ties a named sampler uniform to a texture slot.
type TextureBinding struct {
	Name string
	Slot int
}

// ShaderSource is everything needed to build a program: the two stages,
// the vertex layout, and the slot assignments of its resources.
type ShaderSource struct {
	Name     string
	Vertex   string
	Pixel    string
	Layout   InputLayout
	Blocks   []BlockBinding
	Textures []TextureBinding
}

// SwapchainDesc describes the presentation buffers.
type SwapchainDesc struct {
	Width, Height int
	BufferCount   int
	Format        TextureFormat
	VSync         bool
}
