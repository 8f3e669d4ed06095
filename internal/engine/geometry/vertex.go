// Package geometry holds CPU-side mesh data and the procedural shapes the
// viewer draws.
package geometry

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/iblviewer/internal/engine/gpu"
)

// VertexSize is the packed size of a Vertex in bytes.
const VertexSize = 32

// Vertex is the single vertex format of every mesh.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	TexCoord mgl32.Vec2
}

// VertexLayout is the input layout matching Vertex.
var VertexLayout = gpu.InputLayout{
	Elements: []gpu.InputElement{
		{Semantic: "POSITION", Format: gpu.Float3, Offset: 0},
		{Semantic: "NORMAL", Format: gpu.Float3, Offset: 12},
		{Semantic: "TEXCOORD", Format: gpu.Float2, Offset: 24},
	},
	Stride: VertexSize,
}

// ByteSize returns VertexSize.
func (v Vertex) ByteSize() int { return VertexSize }

// AppendTo appends the little-endian packed vertex to b.
func (v Vertex) AppendTo(b []byte) []byte {
	b = appendFloats(b, v.Position[:]...)
	b = appendFloats(b, v.Normal[:]...)
	return appendFloats(b, v.TexCoord[:]...)
}

func appendFloats(b []byte, fs ...float32) []byte {
	for _, f := range fs {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
	}
	return b
}

// MeshData is an indexed triangle (or line) list with an optional diffuse
// texture file.
type MeshData struct {
	Vertices        []Vertex
	Indices         []uint32
	TextureFilename string
}

// Empty reports whether the mesh has nothing to draw.
func (m MeshData) Empty() bool {
	return len(m.Vertices) == 0 || len(m.Indices) == 0
}

// ReverseIndices flips the winding of every primitive by reversing the
// whole index list. Used to view a box from the inside.
func ReverseIndices(indices []uint32) []uint32 {
	out := make([]uint32, len(indices))
	for i, idx := range indices {
		out[len(indices)-1-i] = idx
	}
	return out
}

// NormalLines builds a line list with one segment per vertex of meshes.
// Every vertex is emitted twice, with TexCoord.X 0 at the surface and 1 at
// the tip; the vertex shader extends the tip along the normal.
func NormalLines(meshes []MeshData) MeshData {
	var out MeshData
	for _, m := range meshes {
		for _, v := range m.Vertices {
			base := uint32(len(out.Vertices))

			v.TexCoord[0] = 0
			out.Vertices = append(out.Vertices, v)
			v.TexCoord[0] = 1
			out.Vertices = append(out.Vertices, v)

			out.Indices = append(out.Indices, base, base+1)
		}
	}
	return out
}
