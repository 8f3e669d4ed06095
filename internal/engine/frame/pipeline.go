// Package frame runs the per-frame update and render passes: constant
// buffer uploads followed by the environment cube, the foreground meshes
// and the optional normal-line overlay.
package frame

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/iblviewer/internal/engine/geometry"
	"github.com/Faultbox/iblviewer/internal/engine/gpu"
	"github.com/Faultbox/iblviewer/internal/engine/resource"
	"github.com/Faultbox/iblviewer/internal/engine/scene"
	"github.com/Faultbox/iblviewer/internal/logger"
)

// Programs are the shader programs of the foreground passes. The cube
// program lives on the scene's CubeMapping.
type Programs struct {
	Basic  gpu.Program
	Normal gpu.Program
}

// Config configures a Pipeline.
type Config struct {
	Surface  *gpu.Surface
	Uploader *resource.Uploader
	Scene    *scene.Scene
	Programs Programs
	// NormalScale is the scale the normal-line buffer was created with.
	NormalScale float32
	Logger      *zap.Logger
}

// Pipeline owns the per-frame state derived from Params.
type Pipeline struct {
	surface  *gpu.Surface
	up       *resource.Uploader
	scene    *scene.Scene
	programs Programs
	sampler  gpu.Sampler
	log      *zap.Logger

	params      Params
	transforms  Transforms
	normalScale float32
	batch       writeBatch
	failed      int
}

// New creates the pipeline and its sampler.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Surface == nil || cfg.Uploader == nil || cfg.Scene == nil {
		return nil, fmt.Errorf("frame: surface, uploader and scene are required")
	}
	log := cfg.Logger
	log = logger.OrNop(log)

	sampler, err := cfg.Surface.Device().CreateSampler(gpu.SamplerDesc{
		Filter:  gpu.FilterLinear,
		Address: gpu.AddressWrap,
		MinLOD:  0,
		MaxLOD:  1000,
	})
	if err != nil {
		return nil, fmt.Errorf("frame: sampler: %w", err)
	}

	return &Pipeline{
		surface:     cfg.Surface,
		up:          cfg.Uploader,
		scene:       cfg.Scene,
		programs:    cfg.Programs,
		sampler:     sampler,
		log:         log,
		params:      DefaultParams(),
		normalScale: cfg.NormalScale,
	}, nil
}

// Update computes this frame's transforms from params and uploads every
// constant buffer that needs it, each distinct buffer once. Failed uploads
// are logged by the uploader and counted, never fatal.
func (p *Pipeline) Update(params Params, dt float32) {
	p.params = params
	p.transforms = ComputeTransforms(params, p.surface.AspectRatio())
	tr := p.transforms

	vc := VertexConstants{
		Model:        tr.Model,
		InvTranspose: tr.InvTranspose,
		View:         tr.View,
		Projection:   tr.Projection,
	}

	mat := params.Material
	mat.Diffuse = mgl32.Vec3{params.MaterialDiffuse, params.MaterialDiffuse, params.MaterialDiffuse}
	mat.Specular = mgl32.Vec3{params.MaterialSpecular, params.MaterialSpecular, params.MaterialSpecular}
	pc := PixelConstants{
		EyeWorld:      tr.EyeWorld,
		UseTexture:    params.UseTexture,
		Material:      mat,
		UseSmoothstep: params.UseSmoothstep,
	}

	for _, m := range p.scene.Meshes() {
		p.batch.queue(m.Constants.Vertex, vc)
		p.batch.queue(m.Constants.Pixel, pc)
	}

	if cube := p.scene.CubeMapping(); cube != nil {
		cc := vc
		cc.Model = mgl32.Ident4()
		cc.InvTranspose = mgl32.Ident4()
		p.batch.queue(cube.Mesh.Constants.Vertex, cc)
	}

	if nl := p.scene.NormalLines(); nl != nil && params.DrawNormals && params.NormalScale != p.normalScale {
		p.batch.queue(nl.Constants.Vertex, NormalConstants{Scale: params.NormalScale})
		p.normalScale = params.NormalScale
	}

	if n := p.batch.flush(p.up); n > 0 {
		p.failed += n
		p.log.Debug("constant buffer updates skipped", zap.Int("count", n), zap.Int("total", p.failed))
	}
}

// Render draws the frame into the surface's render target. It fails only
// when the surface is stale.
func (p *Pipeline) Render() error {
	if err := p.surface.BeginFrame(); err != nil {
		return err
	}
	ctx := p.surface.Context()

	var envDiffuse, envSpecular gpu.View
	if cube := p.scene.CubeMapping(); cube != nil {
		envDiffuse, envSpecular = cube.Diffuse, cube.Specular

		ctx.SetRasterizerState(p.surface.SolidState())
		ctx.SetProgram(cube.Program)
		ctx.SetSamplers(0, p.sampler)
		ctx.SetShaderViews(0, envDiffuse, envSpecular)
		drawMesh(ctx, cube.Mesh, gpu.TriangleList)
	}

	meshes := p.scene.Meshes()
	if len(meshes) == 0 {
		return nil
	}

	raster := p.surface.SolidState()
	if p.params.Wireframe {
		raster = p.surface.WireframeState()
	}
	ctx.SetRasterizerState(raster)
	ctx.SetProgram(p.programs.Basic)
	ctx.SetSamplers(0, p.sampler)
	for _, m := range meshes {
		ctx.SetShaderViews(0, m.TextureView, envDiffuse, envSpecular)
		ctx.SetConstantBuffers(gpu.StagePixel, 0, m.Constants.Pixel)
		drawMesh(ctx, m, gpu.TriangleList)
	}

	if nl := p.scene.NormalLines(); nl != nil && p.params.DrawNormals {
		ctx.SetRasterizerState(p.surface.SolidState())
		ctx.SetProgram(p.programs.Normal)
		ctx.SetConstantBuffers(gpu.StageVertex, 0, meshes[0].Constants.Vertex, nl.Constants.Vertex)
		ctx.SetVertexBuffer(nl.VertexBuffer, geometry.VertexSize)
		ctx.SetIndexBuffer(nl.IndexBuffer)
		ctx.SetTopology(gpu.LineList)
		ctx.DrawIndexed(nl.IndexCount)
	}
	return nil
}

func drawMesh(ctx gpu.Context, m *scene.Mesh, topology gpu.Topology) {
	ctx.SetConstantBuffers(gpu.StageVertex, 0, m.Constants.Vertex)
	ctx.SetVertexBuffer(m.VertexBuffer, geometry.VertexSize)
	ctx.SetIndexBuffer(m.IndexBuffer)
	ctx.SetTopology(topology)
	ctx.DrawIndexed(m.IndexCount)
}

// Params returns the parameters of the last Update.
func (p *Pipeline) Params() Params { return p.params }

// Transforms returns the matrices of the last Update.
func (p *Pipeline) Transforms() Transforms { return p.transforms }

// FailedUpdates returns how many constant buffer writes were skipped.
func (p *Pipeline) FailedUpdates() int { return p.failed }

// Release frees the pipeline's sampler.
func (p *Pipeline) Release() {
	if p.sampler != nil {
		p.sampler.Release()
		p.sampler = nil
	}
}
