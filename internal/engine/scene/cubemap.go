package scene

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/iblviewer/internal/engine/geometry"
	"github.com/Faultbox/iblviewer/internal/engine/gpu"
)

// CubeMappingDesc describes the environment cube.
type CubeMappingDesc struct {
	DiffusePath  string
	SpecularPath string
	// Scale is the half extent of the box; it must enclose the camera.
	Scale   float32
	Program gpu.Program
}

// CubeMapping is the environment box textured with the irradiance and
// prefiltered specular cubemaps. The same maps light the foreground.
type CubeMapping struct {
	Mesh     *Mesh
	Diffuse  gpu.View
	Specular gpu.View
	Program  gpu.Program

	textures []gpu.Texture
}

// SetCubeMapping builds the environment cube. Cubemaps that fail to load
// are logged and left nil; the cube is still drawn.
func (s *Scene) SetCubeMapping(desc CubeMappingDesc) error {
	box := geometry.MakeBox(desc.Scale)
	// The camera sits inside the box.
	box.Indices = geometry.ReverseIndices(box.Indices)

	c, err := s.NewConstants(s.vertexInit, s.pixelInit)
	if err != nil {
		return fmt.Errorf("cube constants: %w", err)
	}
	m, err := s.build(box, &c)
	if err != nil {
		return fmt.Errorf("cube mesh: %w", err)
	}

	cm := &CubeMapping{Mesh: m, Program: desc.Program}
	cm.Diffuse = s.loadCubemap(cm, desc.DiffusePath)
	cm.Specular = s.loadCubemap(cm, desc.SpecularPath)

	if s.cube != nil {
		s.cube.release()
		s.dropConstants(s.cube.Mesh.Constants)
	}
	s.cube = cm
	return nil
}

// dropConstants releases a constant pair and forgets it.
func (s *Scene) dropConstants(c Constants) {
	for i, owned := range s.constants {
		if owned.Vertex != c.Vertex {
			continue
		}
		owned.Vertex.Release()
		if owned.Pixel != nil {
			owned.Pixel.Release()
		}
		s.constants = append(s.constants[:i], s.constants[i+1:]...)
		return
	}
}

func (s *Scene) loadCubemap(cm *CubeMapping, path string) gpu.View {
	tex, view, err := s.up.LoadCubemap(path)
	if err != nil {
		s.log.Warn("environment map unavailable", zap.String("path", path), zap.Error(err))
		return nil
	}
	cm.textures = append(cm.textures, tex)
	return view
}

// CubeMapping returns the environment cube, or nil.
func (s *Scene) CubeMapping() *CubeMapping {
	return s.cube
}

func (cm *CubeMapping) release() {
	releaseMesh(cm.Mesh)
	for _, v := range []gpu.View{cm.Diffuse, cm.Specular} {
		if v != nil {
			v.Release()
		}
	}
	for _, t := range cm.textures {
		t.Release()
	}
}
