package glgpu

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/iblviewer/internal/engine/gpu"
)

// Block-compressed formats that are not part of the 4.1 core headers.
const (
	compressedRGBAS3TCDXT1 = 0x83F1
	compressedRGBAS3TCDXT3 = 0x83F2
	compressedRGBAS3TCDXT5 = 0x83F3
	compressedRGBABPTC     = 0x8E8C
	compressedSRGBABPTC    = 0x8E8D
	compressedRGBBPTCSF    = 0x8E8E
	compressedRGBBPTCUF    = 0x8E8F
)

// Device creates OpenGL objects.
type Device struct {
	level gpu.FeatureLevel
	log   *zap.Logger
}

var _ gpu.Device = (*Device)(nil)

func (d *Device) FeatureLevel() gpu.FeatureLevel { return d.level }

func (d *Device) MaxSamples(format gpu.TextureFormat) int {
	var n int32
	gl.GetIntegerv(gl.MAX_SAMPLES, &n)
	return int(n)
}

type buffer struct {
	id       uint32
	desc     gpu.BufferDesc
	released bool
}

func (b *buffer) Desc() gpu.BufferDesc { return b.desc }

func (b *buffer) Release() {
	if b.released {
		return
	}
	gl.DeleteBuffers(1, &b.id)
	b.released = true
}

// CreateBuffer allocates a buffer object. Uploads go through the copy-write
// target so no vertex array has to be bound.
func (d *Device) CreateBuffer(desc gpu.BufferDesc, data []byte) (gpu.Buffer, error) {
	if desc.Size <= 0 {
		return nil, fmt.Errorf("buffer size %d", desc.Size)
	}
	if len(data) > desc.Size {
		return nil, fmt.Errorf("initial data of %d bytes exceeds buffer size %d", len(data), desc.Size)
	}

	usage := uint32(gl.STATIC_DRAW)
	if desc.Usage == gpu.UsageDynamic {
		usage = gl.DYNAMIC_DRAW
	}

	b := &buffer{desc: desc}
	gl.GenBuffers(1, &b.id)
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, b.id)
	gl.BufferData(gl.COPY_WRITE_BUFFER, desc.Size, nil, usage)
	if len(data) > 0 {
		gl.BufferSubData(gl.COPY_WRITE_BUFFER, 0, len(data), gl.Ptr(data))
	}
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)

	if err := glError(); err != nil {
		b.Release()
		return nil, fmt.Errorf("%s buffer: %w", desc.Kind, err)
	}
	return b, nil
}

type texture struct {
	id       uint32
	target   uint32
	desc     gpu.TextureDesc
	released bool
}

func (t *texture) Desc() gpu.TextureDesc { return t.desc }

func (t *texture) Release() {
	if t.released {
		return
	}
	gl.DeleteTextures(1, &t.id)
	t.released = true
}

type texelFormat struct {
	internal   uint32
	format     uint32
	xtype      uint32
	compressed bool
}

func glFormat(f gpu.TextureFormat) (texelFormat, error) {
	switch f {
	case gpu.FormatRGBA8:
		return texelFormat{gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE, false}, nil
	case gpu.FormatRGBA8SRGB:
		return texelFormat{gl.SRGB8_ALPHA8, gl.RGBA, gl.UNSIGNED_BYTE, false}, nil
	case gpu.FormatBGRA8:
		return texelFormat{gl.RGBA8, gl.BGRA, gl.UNSIGNED_BYTE, false}, nil
	case gpu.FormatRGBA16F:
		return texelFormat{gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT, false}, nil
	case gpu.FormatRGBA32F:
		return texelFormat{gl.RGBA32F, gl.RGBA, gl.FLOAT, false}, nil
	case gpu.FormatBC1:
		return texelFormat{internal: compressedRGBAS3TCDXT1, compressed: true}, nil
	case gpu.FormatBC2:
		return texelFormat{internal: compressedRGBAS3TCDXT3, compressed: true}, nil
	case gpu.FormatBC3:
		return texelFormat{internal: compressedRGBAS3TCDXT5, compressed: true}, nil
	case gpu.FormatBC6HUF16:
		return texelFormat{internal: compressedRGBBPTCUF, compressed: true}, nil
	case gpu.FormatBC6HSF16:
		return texelFormat{internal: compressedRGBBPTCSF, compressed: true}, nil
	case gpu.FormatBC7:
		return texelFormat{internal: compressedRGBABPTC, compressed: true}, nil
	case gpu.FormatBC7SRGB:
		return texelFormat{internal: compressedSRGBABPTC, compressed: true}, nil
	}
	return texelFormat{}, fmt.Errorf("texture format %s not supported", f)
}

// CreateTexture uploads every mip of every face. Cube faces are in
// +X, -X, +Y, -Y, +Z, -Z order.
func (d *Device) CreateTexture(desc gpu.TextureDesc, levels [][]byte) (gpu.Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 || desc.MipLevels <= 0 {
		return nil, fmt.Errorf("texture %dx%d with %d mips", desc.Width, desc.Height, desc.MipLevels)
	}
	tf, err := glFormat(desc.Format)
	if err != nil {
		return nil, err
	}

	faces := 1
	target := uint32(gl.TEXTURE_2D)
	if desc.Cube {
		faces = 6
		target = gl.TEXTURE_CUBE_MAP
	}
	if len(levels) < faces*desc.MipLevels {
		return nil, fmt.Errorf("texture needs %d surfaces, got %d", faces*desc.MipLevels, len(levels))
	}

	t := &texture{target: target, desc: desc}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(target, t.id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)

	for face := 0; face < faces; face++ {
		imageTarget := target
		if desc.Cube {
			imageTarget = gl.TEXTURE_CUBE_MAP_POSITIVE_X + uint32(face)
		}
		for mip := 0; mip < desc.MipLevels; mip++ {
			data := levels[face*desc.MipLevels+mip]
			w := int32(max(desc.Width>>mip, 1))
			h := int32(max(desc.Height>>mip, 1))
			var ptr unsafe.Pointer
			if len(data) > 0 {
				ptr = gl.Ptr(data)
			}
			if tf.compressed {
				gl.CompressedTexImage2D(imageTarget, int32(mip), tf.internal, w, h, 0, int32(len(data)), ptr)
			} else {
				gl.TexImage2D(imageTarget, int32(mip), int32(tf.internal), w, h, 0, tf.format, tf.xtype, ptr)
			}
		}
	}

	gl.TexParameteri(target, gl.TEXTURE_BASE_LEVEL, 0)
	gl.TexParameteri(target, gl.TEXTURE_MAX_LEVEL, int32(desc.MipLevels-1))
	gl.BindTexture(target, 0)

	if err := glError(); err != nil {
		t.Release()
		return nil, fmt.Errorf("%s texture: %w", desc.Format, err)
	}
	return t, nil
}

// view shares its texture object; releasing a view leaves the texture alive.
type view struct {
	tex *texture
}

func (v *view) Release() {}

func (v *view) Dimension() gpu.ViewDimension {
	if v.tex.desc.Cube {
		return gpu.ViewTextureCube
	}
	return gpu.ViewTexture2D
}

func (d *Device) CreateView(tex gpu.Texture) (gpu.View, error) {
	t, ok := tex.(*texture)
	if !ok {
		return nil, fmt.Errorf("foreign texture %T", tex)
	}
	return &view{tex: t}, nil
}

type sampler struct {
	id       uint32
	released bool
}

func (s *sampler) Release() {
	if s.released {
		return
	}
	gl.DeleteSamplers(1, &s.id)
	s.released = true
}

func (d *Device) CreateSampler(desc gpu.SamplerDesc) (gpu.Sampler, error) {
	s := &sampler{}
	gl.GenSamplers(1, &s.id)

	minFilter, magFilter := int32(gl.LINEAR_MIPMAP_LINEAR), int32(gl.LINEAR)
	if desc.Filter == gpu.FilterNearest {
		minFilter, magFilter = gl.NEAREST_MIPMAP_NEAREST, gl.NEAREST
	}
	wrap := int32(gl.REPEAT)
	if desc.Address == gpu.AddressClamp {
		wrap = gl.CLAMP_TO_EDGE
	}

	gl.SamplerParameteri(s.id, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.SamplerParameteri(s.id, gl.TEXTURE_MAG_FILTER, magFilter)
	for _, p := range []uint32{gl.TEXTURE_WRAP_S, gl.TEXTURE_WRAP_T, gl.TEXTURE_WRAP_R} {
		gl.SamplerParameteri(s.id, p, wrap)
	}
	gl.SamplerParameterf(s.id, gl.TEXTURE_MIN_LOD, desc.MinLOD)
	gl.SamplerParameterf(s.id, gl.TEXTURE_MAX_LOD, desc.MaxLOD)

	if err := glError(); err != nil {
		s.Release()
		return nil, fmt.Errorf("sampler: %w", err)
	}
	return s, nil
}

// renderbuffer backs both render targets and depth buffers.
type renderbuffer struct {
	id            uint32
	width, height int
	samples       int
	depth         bool
	released      bool
}

func (r *renderbuffer) Size() (width, height int) { return r.width, r.height }
func (r *renderbuffer) Samples() int { return r.samples }

func (r *renderbuffer) Release() {
	if r.released {
		return
	}
	gl.DeleteRenderbuffers(1, &r.id)
	r.released = true
}

func (d *Device) createRenderbuffer(width, height, samples int, format uint32, depth bool) (*renderbuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("renderbuffer size %dx%d", width, height)
	}
	r := &renderbuffer{width: width, height: height, samples: samples, depth: depth}
	gl.GenRenderbuffers(1, &r.id)
	gl.BindRenderbuffer(gl.RENDERBUFFER, r.id)
	if samples > 1 {
		gl.RenderbufferStorageMultisample(gl.RENDERBUFFER, int32(samples), format, int32(width), int32(height))
	} else {
		gl.RenderbufferStorage(gl.RENDERBUFFER, format, int32(width), int32(height))
	}
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)

	if err := glError(); err != nil {
		r.Release()
		return nil, err
	}
	return r, nil
}

func (d *Device) CreateRenderTarget(width, height, samples int) (gpu.RenderTarget, error) {
	r, err := d.createRenderbuffer(width, height, samples, gl.RGBA8, false)
	if err != nil {
		return nil, fmt.Errorf("render target: %w", err)
	}
	return r, nil
}

func (d *Device) CreateDepthBuffer(width, height, samples int) (gpu.DepthBuffer, error) {
	r, err := d.createRenderbuffer(width, height, samples, gl.DEPTH24_STENCIL8, true)
	if err != nil {
		return nil, fmt.Errorf("depth buffer: %w", err)
	}
	return r, nil
}

// glError drains the error queue and returns the first error.
func glError() error {
	var first uint32
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		if first == 0 {
			first = code
		}
	}
	if first != 0 {
		return fmt.Errorf("GL error 0x%04x", first)
	}
	return nil
}
