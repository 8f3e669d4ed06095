// Package scene holds the meshes drawn each frame: the foreground meshes
// in insertion order, the environment cube, and the normal-line overlay.
package scene

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/iblviewer/internal/engine/geometry"
	"github.com/Faultbox/iblviewer/internal/engine/gpu"
	"github.com/Faultbox/iblviewer/internal/engine/resource"
	"github.com/Faultbox/iblviewer/internal/logger"
)

// ErrInvalidMesh means mesh data has no vertices, no indices, or indices
// past the end of the vertex list.
var ErrInvalidMesh = errors.New("scene: invalid mesh")

// MeshID identifies a foreground mesh. IDs are never reused.
type MeshID int

// Constants is a vertex/pixel constant buffer pair. Several meshes may
// share one pair; each buffer is then written once per frame.
type Constants struct {
	Vertex gpu.Buffer
	Pixel  gpu.Buffer
}

// Mesh is geometry uploaded to the device.
type Mesh struct {
	ID           MeshID
	VertexBuffer gpu.Buffer
	IndexBuffer  gpu.Buffer
	IndexCount   int
	Constants    Constants
	// Texture and TextureView are nil when the mesh has no diffuse texture
	// or it failed to load.
	Texture     gpu.Texture
	TextureView gpu.View
}

// Scene owns every mesh and constant buffer it creates.
type Scene struct {
	up  *resource.Uploader
	log *zap.Logger

	vertexInit resource.Layout
	pixelInit  resource.Layout

	meshes    []*Mesh
	byID      map[MeshID]*Mesh
	nextID    MeshID
	cube      *CubeMapping
	normals   *Mesh
	constants []Constants
	released  bool
}

// New returns an empty scene. Meshes added without shared constants get a
// fresh pair initialized from vertexInit and pixelInit.
func New(up *resource.Uploader, vertexInit, pixelInit resource.Layout, log *zap.Logger) *Scene {
	log = logger.OrNop(log)
	return &Scene{
		up:         up,
		log:        log,
		vertexInit: vertexInit,
		pixelInit:  pixelInit,
		byID:       make(map[MeshID]*Mesh),
	}
}

// NewConstants creates a constant buffer pair owned by the scene. A nil
// pixel layout leaves Pixel nil.
func (s *Scene) NewConstants(vertex, pixel resource.Layout) (Constants, error) {
	var c Constants
	var err error
	if c.Vertex, err = s.up.CreateDynamicConstantBuffer(vertex); err != nil {
		return Constants{}, fmt.Errorf("vertex constants: %w", err)
	}
	if pixel != nil {
		if c.Pixel, err = s.up.CreateDynamicConstantBuffer(pixel); err != nil {
			c.Vertex.Release()
			return Constants{}, fmt.Errorf("pixel constants: %w", err)
		}
	}
	s.constants = append(s.constants, c)
	return c, nil
}

// AddMesh uploads data and appends it to the foreground meshes. When
// shared is nil the mesh gets its own constant buffers.
func (s *Scene) AddMesh(data geometry.MeshData, shared *Constants) (MeshID, error) {
	m, err := s.build(data, shared)
	if err != nil {
		return 0, err
	}

	s.nextID++
	m.ID = s.nextID
	s.meshes = append(s.meshes, m)
	s.byID[m.ID] = m

	s.log.Debug("mesh added",
		zap.Int("id", int(m.ID)),
		zap.Int("vertices", len(data.Vertices)),
		zap.Int("indices", m.IndexCount),
		zap.Bool("textured", m.TextureView != nil))
	return m.ID, nil
}

func (s *Scene) build(data geometry.MeshData, shared *Constants) (*Mesh, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	c := Constants{}
	if shared != nil {
		c = *shared
	} else {
		var err error
		if c, err = s.NewConstants(s.vertexInit, s.pixelInit); err != nil {
			return nil, err
		}
	}

	vb, err := resource.CreateVertexBuffer(s.up, data.Vertices)
	if err != nil {
		return nil, err
	}
	ib, err := s.up.CreateIndexBuffer(data.Indices)
	if err != nil {
		vb.Release()
		return nil, err
	}

	m := &Mesh{
		VertexBuffer: vb,
		IndexBuffer:  ib,
		IndexCount:   len(data.Indices),
		Constants:    c,
	}

	if data.TextureFilename != "" {
		tex, view, err := s.up.LoadTexture2D(data.TextureFilename)
		if err != nil {
			s.log.Warn("mesh texture unavailable, drawing untextured",
				zap.String("path", data.TextureFilename), zap.Error(err))
		} else {
			m.Texture, m.TextureView = tex, view
		}
	}
	return m, nil
}

// Validate reports ErrInvalidMesh for data that cannot be drawn.
func Validate(data geometry.MeshData) error {
	if len(data.Vertices) == 0 {
		return fmt.Errorf("%w: no vertices", ErrInvalidMesh)
	}
	if len(data.Indices) == 0 {
		return fmt.Errorf("%w: no indices", ErrInvalidMesh)
	}
	for i, idx := range data.Indices {
		if int(idx) >= len(data.Vertices) {
			return fmt.Errorf("%w: index %d at %d exceeds %d vertices", ErrInvalidMesh, idx, i, len(data.Vertices))
		}
	}
	return nil
}

// Mesh returns the foreground mesh with the given id.
func (s *Scene) Mesh(id MeshID) (*Mesh, bool) {
	m, ok := s.byID[id]
	return m, ok
}

// Meshes returns the foreground meshes in insertion order.
func (s *Scene) Meshes() []*Mesh {
	return s.meshes
}

// Len returns the number of foreground meshes.
func (s *Scene) Len() int {
	return len(s.meshes)
}

// SetNormalLines uploads the normal-line overlay. c.Vertex must hold the
// line scale; the transform comes from the first foreground mesh.
func (s *Scene) SetNormalLines(data geometry.MeshData, c Constants) error {
	m, err := s.build(data, &c)
	if err != nil {
		return fmt.Errorf("normal lines: %w", err)
	}
	if s.normals != nil {
		releaseMesh(s.normals)
	}
	s.normals = m
	return nil
}

// NormalLines returns the overlay mesh, or nil.
func (s *Scene) NormalLines() *Mesh {
	return s.normals
}

// Release frees every resource the scene created. Shared constant buffers
// are released once.
func (s *Scene) Release() {
	if s.released {
		return
	}
	s.released = true

	for _, m := range s.meshes {
		releaseMesh(m)
	}
	if s.normals != nil {
		releaseMesh(s.normals)
	}
	if s.cube != nil {
		s.cube.release()
	}
	for _, c := range s.constants {
		c.Vertex.Release()
		if c.Pixel != nil {
			c.Pixel.Release()
		}
	}
	s.meshes = nil
	s.byID = map[MeshID]*Mesh{}
	s.constants = nil
}

// releaseMesh frees the buffers and texture a mesh owns. Constant buffers
// belong to the scene.
func releaseMesh(m *Mesh) {
	m.VertexBuffer.Release()
	m.IndexBuffer.Release()
	if m.TextureView != nil {
		m.TextureView.Release()
	}
	if m.Texture != nil {
		m.Texture.Release()
	}
}
