package glgpu

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/iblviewer/internal/engine/gpu"
)

// maxTextureUnits is how many units SetShaderViews and SetSamplers address.
const maxTextureUnits = 8

// maxAttribs is how many vertex attributes a draw may enable.
const maxAttribs = 8

// Context issues GL commands. It does not cache bindings: other code
// (the 2D overlay) touches GL state between frames.
type Context struct {
	log *zap.Logger

	fbo uint32
	vao uint32

	program      *program
	vertexBuffer *buffer
	stride       int
	indexBuffer  *buffer
	topology     gpu.Topology
	samplers     [maxTextureUnits]*sampler
	color        *renderbuffer
	depth        *renderbuffer
	incomplete   bool
}

var _ gpu.Context = (*Context)(nil)

func newContext(log *zap.Logger) *Context {
	c := &Context{log: log}
	gl.GenFramebuffers(1, &c.fbo)
	gl.GenVertexArrays(1, &c.vao)
	return c
}

// Release deletes the frame buffer and vertex array objects.
func (c *Context) Release() {
	if c.fbo != 0 {
		gl.DeleteFramebuffers(1, &c.fbo)
		c.fbo = 0
	}
	if c.vao != 0 {
		gl.DeleteVertexArrays(1, &c.vao)
		c.vao = 0
	}
}

func (c *Context) SetViewport(v gpu.Viewport) {
	gl.Viewport(int32(v.X), int32(v.Y), int32(v.Width), int32(v.Height))
	gl.DepthRangef(v.MinDepth, v.MaxDepth)
}

// attach binds the offscreen frame buffer with the given attachments.
// Nil arguments keep the current attachment.
func (c *Context) attach(rt, db *renderbuffer) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, c.fbo)
	if rt != nil && rt != c.color {
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.RENDERBUFFER, rt.id)
		c.color = rt
	}
	if db != nil && db != c.depth {
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, gl.RENDERBUFFER, db.id)
		c.depth = db
	}
}

func (c *Context) ClearRenderTarget(rt gpu.RenderTarget, color [4]float32) {
	r, ok := rt.(*renderbuffer)
	if !ok || r.released {
		return
	}
	c.attach(r, nil)
	gl.ColorMask(true, true, true, true)
	gl.ClearBufferfv(gl.COLOR, 0, &color[0])
}

func (c *Context) ClearDepthStencil(db gpu.DepthBuffer, depth float32, stencil uint8) {
	r, ok := db.(*renderbuffer)
	if !ok || r.released {
		return
	}
	c.attach(nil, r)
	gl.DepthMask(true)
	gl.ClearBufferfi(gl.DEPTH_STENCIL, 0, depth, int32(stencil))
}

func (c *Context) SetRenderTargets(rt gpu.RenderTarget, db gpu.DepthBuffer) {
	color, _ := rt.(*renderbuffer)
	depth, _ := db.(*renderbuffer)
	c.attach(color, depth)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	if status != gl.FRAMEBUFFER_COMPLETE {
		if !c.incomplete {
			c.log.Error("framebuffer incomplete", zap.Uint32("status", status))
		}
		c.incomplete = true
		return
	}
	c.incomplete = false
}

func (c *Context) SetDepthStencilState(s gpu.DepthStencilState) {
	if !s.DepthEnable {
		gl.Disable(gl.DEPTH_TEST)
		return
	}
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthMask(s.DepthWrite)
	switch s.DepthFunc {
	case gpu.CompareLess:
		gl.DepthFunc(gl.LESS)
	case gpu.CompareLessEqual:
		gl.DepthFunc(gl.LEQUAL)
	default:
		gl.DepthFunc(gl.ALWAYS)
	}
}

func (c *Context) SetRasterizerState(s gpu.RasterizerState) {
	if s.Fill == gpu.FillWireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	} else {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}

	switch s.Cull {
	case gpu.CullNone:
		gl.Disable(gl.CULL_FACE)
	case gpu.CullBack:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	case gpu.CullFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	}

	if s.DepthClip {
		gl.Disable(gl.DEPTH_CLAMP)
	} else {
		gl.Enable(gl.DEPTH_CLAMP)
	}
}

func (c *Context) SetProgram(p gpu.Program) {
	c.program, _ = p.(*program)
	if c.program == nil || c.program.released {
		gl.UseProgram(0)
		return
	}
	gl.UseProgram(c.program.id)
}

func (c *Context) SetVertexBuffer(b gpu.Buffer, stride int) {
	c.vertexBuffer, _ = b.(*buffer)
	c.stride = stride
}

func (c *Context) SetIndexBuffer(b gpu.Buffer) {
	c.indexBuffer, _ = b.(*buffer)
}

func (c *Context) SetTopology(t gpu.Topology) {
	c.topology = t
}

func (c *Context) SetConstantBuffers(stage gpu.Stage, slot int, bufs ...gpu.Buffer) {
	for i, b := range bufs {
		var id uint32
		if gb, ok := b.(*buffer); ok && !gb.released {
			id = gb.id
		}
		gl.BindBufferBase(gl.UNIFORM_BUFFER, blockBinding(stage, slot+i), id)
	}
}

func (c *Context) SetShaderViews(slot int, views ...gpu.View) {
	for i, v := range views {
		unit := slot + i
		if unit >= maxTextureUnits {
			break
		}
		gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
		gv, ok := v.(*view)
		if !ok || gv.tex.released {
			gl.BindTexture(gl.TEXTURE_2D, 0)
			gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
			continue
		}
		gl.BindTexture(gv.tex.target, gv.tex.id)
	}
	gl.ActiveTexture(gl.TEXTURE0)
}

// SetSamplers records samplers per slot. Texture units without a sampler
// of their own use slot 0's at draw time.
func (c *Context) SetSamplers(slot int, samplers ...gpu.Sampler) {
	for i, s := range samplers {
		if slot+i >= maxTextureUnits {
			break
		}
		c.samplers[slot+i], _ = s.(*sampler)
	}
}

// UpdateBuffer maps the whole buffer with invalidation and copies data in.
func (c *Context) UpdateBuffer(b gpu.Buffer, data []byte) error {
	if b == nil {
		return gpu.ErrNilBuffer
	}
	gb, ok := b.(*buffer)
	if !ok {
		return fmt.Errorf("foreign buffer %T", b)
	}
	if gb.released {
		return gpu.ErrReleased
	}
	if gb.desc.Usage != gpu.UsageDynamic {
		return fmt.Errorf("%s buffer is not dynamic", gb.desc.Kind)
	}
	if len(data) > gb.desc.Size {
		return fmt.Errorf("update of %d bytes exceeds buffer size %d", len(data), gb.desc.Size)
	}
	if len(data) == 0 {
		return nil
	}

	gl.BindBuffer(gl.COPY_WRITE_BUFFER, gb.id)
	defer gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)

	ptr := gl.MapBufferRange(gl.COPY_WRITE_BUFFER, 0, gb.desc.Size, gl.MAP_WRITE_BIT|gl.MAP_INVALIDATE_BUFFER_BIT)
	if ptr == nil {
		return fmt.Errorf("map %s buffer: %w", gb.desc.Kind, glError())
	}
	copy(unsafe.Slice((*byte)(ptr), gb.desc.Size), data)
	if !gl.UnmapBuffer(gl.COPY_WRITE_BUFFER) {
		return fmt.Errorf("unmap %s buffer: contents lost", gb.desc.Kind)
	}
	return nil
}

// DrawIndexed binds the vertex layout of the current program against the
// current vertex buffer and draws count 32-bit indices.
func (c *Context) DrawIndexed(count int) {
	if c.incomplete || c.program == nil || c.program.released {
		return
	}
	if c.vertexBuffer == nil || c.vertexBuffer.released || c.indexBuffer == nil || c.indexBuffer.released {
		return
	}

	gl.BindVertexArray(c.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, c.vertexBuffer.id)

	stride := c.stride
	if stride == 0 {
		stride = c.program.layout.Stride
	}
	elems := c.program.layout.Elements
	for i := 0; i < maxAttribs; i++ {
		if i >= len(elems) {
			gl.DisableVertexAttribArray(uint32(i))
			continue
		}
		e := elems[i]
		gl.VertexAttribPointerWithOffset(uint32(i), int32(e.Format.Components()), gl.FLOAT, false, int32(stride), uintptr(e.Offset))
		gl.EnableVertexAttribArray(uint32(i))
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, c.indexBuffer.id)

	for unit := uint32(0); unit < maxTextureUnits; unit++ {
		s := c.samplers[unit]
		if s == nil {
			s = c.samplers[0]
		}
		var id uint32
		if s != nil && !s.released {
			id = s.id
		}
		gl.BindSampler(unit, id)
	}

	mode := uint32(gl.TRIANGLES)
	if c.topology == gpu.LineList {
		mode = gl.LINES
	}
	gl.DrawElementsWithOffset(mode, int32(count), gl.UNSIGNED_INT, 0)
	gl.BindVertexArray(0)
}

// Resolve blits the multisampled target into the default frame buffer and
// leaves it bound for drawing.
func (c *Context) Resolve(rt gpu.RenderTarget) {
	r, ok := rt.(*renderbuffer)
	if !ok || r.released {
		return
	}
	c.attach(r, nil)
	w, h := int32(r.width), int32(r.height)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, c.fbo)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
	gl.BlitFramebuffer(0, 0, w, h, 0, 0, w, h, gl.COLOR_BUFFER_BIT, gl.NEAREST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// ReadBackBuffer reads the default frame buffer.
func (c *Context) ReadBackBuffer(width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("read back %dx%d", width, height)
	}
	pix := make([]byte, width*height*4)

	var prev int32
	gl.GetIntegerv(gl.READ_FRAMEBUFFER_BINDING, &prev)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	gl.ReadBuffer(gl.BACK)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(prev))

	if err := glError(); err != nil {
		return nil, fmt.Errorf("read back buffer: %w", err)
	}
	return pix, nil
}
