package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MakeBox returns an axis-aligned cube from -scale to +scale with outward
// normals, four vertices per face.
func MakeBox(scale float32) MeshData {
	type face struct {
		normal  mgl32.Vec3
		corners [4]mgl32.Vec3 // counter-clockwise seen from outside
	}
	faces := []face{
		{mgl32.Vec3{0, 1, 0}, [4]mgl32.Vec3{{-1, 1, 1}, {1, 1, 1}, {1, 1, -1}, {-1, 1, -1}}},
		{mgl32.Vec3{0, -1, 0}, [4]mgl32.Vec3{{-1, -1, -1}, {1, -1, -1}, {1, -1, 1}, {-1, -1, 1}}},
		{mgl32.Vec3{0, 0, 1}, [4]mgl32.Vec3{{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1}}},
		{mgl32.Vec3{0, 0, -1}, [4]mgl32.Vec3{{1, -1, -1}, {-1, -1, -1}, {-1, 1, -1}, {1, 1, -1}}},
		{mgl32.Vec3{-1, 0, 0}, [4]mgl32.Vec3{{-1, -1, -1}, {-1, -1, 1}, {-1, 1, 1}, {-1, 1, -1}}},
		{mgl32.Vec3{1, 0, 0}, [4]mgl32.Vec3{{1, -1, 1}, {1, -1, -1}, {1, 1, -1}, {1, 1, 1}}},
	}
	uvs := [4]mgl32.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}}

	var m MeshData
	for _, f := range faces {
		base := uint32(len(m.Vertices))
		for i, c := range f.corners {
			m.Vertices = append(m.Vertices, Vertex{
				Position: c.Mul(scale),
				Normal:   f.normal,
				TexCoord: uvs[i],
			})
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return m
}

// MakeSphere returns a UV sphere centered at the origin. Texture v runs
// from 0 at the north pole to 1 at the south pole.
func MakeSphere(radius float32, slices, stacks int) MeshData {
	if slices < 3 {
		slices = 3
	}
	if stacks < 2 {
		stacks = 2
	}

	var m MeshData
	for j := 0; j <= stacks; j++ {
		phi := math.Pi * float64(j) / float64(stacks)
		for i := 0; i <= slices; i++ {
			theta := 2 * math.Pi * float64(i) / float64(slices)
			n := mgl32.Vec3{
				float32(math.Sin(phi) * math.Cos(theta)),
				float32(math.Cos(phi)),
				float32(-math.Sin(phi) * math.Sin(theta)),
			}
			m.Vertices = append(m.Vertices, Vertex{
				Position: n.Mul(radius),
				Normal:   n,
				TexCoord: mgl32.Vec2{float32(i) / float32(slices), float32(j) / float32(stacks)},
			})
		}
	}

	ring := uint32(slices + 1)
	for j := 0; j < stacks; j++ {
		for i := 0; i < slices; i++ {
			a := uint32(j)*ring + uint32(i)
			b := a + ring
			m.Indices = append(m.Indices, a, b, a+1, a+1, b, b+1)
		}
	}
	return m
}
