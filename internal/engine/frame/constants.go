package frame

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Constant buffer layouts follow std140: every block is a multiple of 16
// bytes and vec3 members are padded to 16.

// VertexConstants is the transform block of the mesh and cube programs.
type VertexConstants struct {
	Model        mgl32.Mat4
	InvTranspose mgl32.Mat4
	View         mgl32.Mat4
	Projection   mgl32.Mat4
}

func (c VertexConstants) ByteSize() int { return 256 }

func (c VertexConstants) AppendTo(b []byte) []byte {
	b = appendFloats(b, c.Model[:]...)
	b = appendFloats(b, c.InvTranspose[:]...)
	b = appendFloats(b, c.View[:]...)
	return appendFloats(b, c.Projection[:]...)
}

// Material is the surface description shared with the pixel shader.
type Material struct {
	Ambient   mgl32.Vec3
	Shininess float32
	Diffuse   mgl32.Vec3
	Specular  mgl32.Vec3
	FresnelR0 mgl32.Vec3
}

// DefaultMaterial is a silver-like conductor.
func DefaultMaterial() Material {
	return Material{
		Ambient:   mgl32.Vec3{0, 0, 0},
		Shininess: 0.01,
		Diffuse:   mgl32.Vec3{0, 0, 0},
		Specular:  mgl32.Vec3{1, 1, 1},
		FresnelR0: mgl32.Vec3{0.95, 0.93, 0.88},
	}
}

func (m Material) ByteSize() int { return 64 }

func (m Material) AppendTo(b []byte) []byte {
	b = appendFloats(b, m.Ambient[0], m.Ambient[1], m.Ambient[2], m.Shininess)
	b = appendFloats(b, m.Diffuse[0], m.Diffuse[1], m.Diffuse[2], 0)
	b = appendFloats(b, m.Specular[0], m.Specular[1], m.Specular[2], 0)
	return appendFloats(b, m.FresnelR0[0], m.FresnelR0[1], m.FresnelR0[2], 0)
}

// PixelConstants is the shading block of the mesh program.
type PixelConstants struct {
	EyeWorld      mgl32.Vec3
	UseTexture    bool
	Material      Material
	UseSmoothstep bool
}

func (c PixelConstants) ByteSize() int { return 96 }

func (c PixelConstants) AppendTo(b []byte) []byte {
	b = appendFloats(b, c.EyeWorld[:]...)
	b = appendBool(b, c.UseTexture)
	b = c.Material.AppendTo(b)
	b = appendBool(b, c.UseSmoothstep)
	return appendFloats(b, 0, 0, 0)
}

// NormalConstants is the scale block of the normal-line program.
type NormalConstants struct {
	Scale float32
}

func (c NormalConstants) ByteSize() int { return 16 }

func (c NormalConstants) AppendTo(b []byte) []byte {
	return appendFloats(b, c.Scale, 0, 0, 0)
}

func appendFloats(b []byte, fs ...float32) []byte {
	for _, f := range fs {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
	}
	return b
}

func appendBool(b []byte, v bool) []byte {
	var u uint32
	if v {
		u = 1
	}
	return binary.LittleEndian.AppendUint32(b, u)
}
