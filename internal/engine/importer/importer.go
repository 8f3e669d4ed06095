// Package importer reads glTF 2.0 models (.gltf or .glb) into mesh data.
// Node transforms are baked into the vertices, and each primitive becomes
// one mesh.
package importer

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/iblviewer/internal/engine/geometry"
	"github.com/Faultbox/iblviewer/internal/logger"
)

// ErrModelLoad is returned when a model file cannot be read or decoded.
var ErrModelLoad = errors.New("model load failed")

// Load reads basePath/filename. Diffuse texture names are resolved
// against basePath using only the base name of the image URI.
func Load(basePath, filename string, log *zap.Logger) ([]geometry.MeshData, error) {
	log = logger.OrNop(log)
	file := filepath.Join(basePath, filename)
	doc, err := gltf.Open(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelLoad, file, err)
	}

	l := &loader{doc: doc, basePath: basePath, log: log.With(zap.String("model", file))}
	for _, root := range rootNodes(doc) {
		if err := l.processNode(root, mgl32.Ident4(), 0); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrModelLoad, file, err)
		}
	}
	if len(l.meshes) == 0 {
		return nil, fmt.Errorf("%w: %s: no triangle meshes", ErrModelLoad, file)
	}
	log.Info("model loaded",
		zap.String("path", file),
		zap.Int("meshes", len(l.meshes)))
	return l.meshes, nil
}

type loader struct {
	doc      *gltf.Document
	basePath string
	log      *zap.Logger
	meshes   []geometry.MeshData
}

// rootNodes returns the nodes of the default scene, or every parentless
// node when the file declares no scene.
func rootNodes(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			idx = *doc.Scene
		}
		return doc.Scenes[idx].Nodes
	}
	child := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(child) {
				child[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !child[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

// maxDepth bounds recursion on malformed, cyclic hierarchies.
const maxDepth = 64

func (l *loader) processNode(idx int, parent mgl32.Mat4, depth int) error {
	if idx < 0 || idx >= len(l.doc.Nodes) {
		return fmt.Errorf("node %d out of range", idx)
	}
	if depth > maxDepth {
		return fmt.Errorf("node hierarchy deeper than %d", maxDepth)
	}
	node := l.doc.Nodes[idx]
	world := parent.Mul4(LocalTransform(node))

	if node.Mesh != nil {
		if *node.Mesh < 0 || *node.Mesh >= len(l.doc.Meshes) {
			return fmt.Errorf("node %d: mesh %d out of range", idx, *node.Mesh)
		}
		for i, prim := range l.doc.Meshes[*node.Mesh].Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				l.log.Warn("skipping non-triangle primitive",
					zap.Int("mesh", *node.Mesh),
					zap.Int("primitive", i))
				continue
			}
			data, err := l.processPrimitive(prim)
			if err != nil {
				return fmt.Errorf("mesh %d primitive %d: %w", *node.Mesh, i, err)
			}
			bake(&data, world)
			l.meshes = append(l.meshes, data)
		}
	}

	for _, c := range node.Children {
		if err := l.processNode(c, world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// LocalTransform returns the node's transform relative to its parent:
// the explicit matrix when one is given, else T * R * S.
func LocalTransform(n *gltf.Node) mgl32.Mat4 {
	if m := n.MatrixOrDefault(); m != gltf.DefaultMatrix {
		var out mgl32.Mat4
		for i, v := range m {
			out[i] = float32(v)
		}
		return out
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	q := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
	return mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul4(q.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2])))
}

func (l *loader) processPrimitive(prim *gltf.Primitive) (geometry.MeshData, error) {
	var data geometry.MeshData

	posAcr, err := l.accessor(prim.Attributes, gltf.POSITION)
	if err != nil {
		return data, err
	}
	if posAcr == nil {
		return data, errors.New("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(l.doc, posAcr, nil)
	if err != nil {
		return data, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	if acr, err := l.accessor(prim.Attributes, gltf.NORMAL); err != nil {
		return data, err
	} else if acr != nil {
		if normals, err = modeler.ReadNormal(l.doc, acr, nil); err != nil {
			return data, fmt.Errorf("normals: %w", err)
		}
	}
	var uvs [][2]float32
	if acr, err := l.accessor(prim.Attributes, gltf.TEXCOORD_0); err != nil {
		return data, err
	} else if acr != nil {
		if uvs, err = modeler.ReadTextureCoord(l.doc, acr, nil); err != nil {
			return data, fmt.Errorf("texcoords: %w", err)
		}
	}

	data.Vertices = make([]geometry.Vertex, len(positions))
	for i, p := range positions {
		v := geometry.Vertex{Position: p}
		if i < len(normals) {
			v.Normal = mgl32.Vec3(normals[i]).Normalize()
		}
		if i < len(uvs) {
			v.TexCoord = uvs[i]
		}
		data.Vertices[i] = v
	}

	if prim.Indices != nil {
		if *prim.Indices < 0 || *prim.Indices >= len(l.doc.Accessors) {
			return data, fmt.Errorf("index accessor %d out of range", *prim.Indices)
		}
		if data.Indices, err = modeler.ReadIndices(l.doc, l.doc.Accessors[*prim.Indices], nil); err != nil {
			return data, fmt.Errorf("indices: %w", err)
		}
	} else {
		data.Indices = make([]uint32, len(positions))
		for i := range data.Indices {
			data.Indices[i] = uint32(i)
		}
	}

	data.TextureFilename = l.diffuseTexture(prim)
	return data, nil
}

// accessor returns the accessor bound to name, or nil when the attribute
// is absent.
func (l *loader) accessor(attrs map[string]int, name string) (*gltf.Accessor, error) {
	idx, ok := attrs[name]
	if !ok {
		return nil, nil
	}
	if idx < 0 || idx >= len(l.doc.Accessors) {
		return nil, fmt.Errorf("%s accessor %d out of range", name, idx)
	}
	return l.doc.Accessors[idx], nil
}

// diffuseTexture resolves the base color texture of the primitive's
// material. Embedded images have no file name and are ignored.
func (l *loader) diffuseTexture(prim *gltf.Primitive) string {
	if prim.Material == nil || *prim.Material >= len(l.doc.Materials) {
		return ""
	}
	pbr := l.doc.Materials[*prim.Material].PBRMetallicRoughness
	if pbr == nil || pbr.BaseColorTexture == nil {
		return ""
	}
	ti := pbr.BaseColorTexture.Index
	if ti >= len(l.doc.Textures) || l.doc.Textures[ti].Source == nil {
		return ""
	}
	src := *l.doc.Textures[ti].Source
	if src >= len(l.doc.Images) {
		return ""
	}
	img := l.doc.Images[src]
	if img.URI == "" || img.IsEmbeddedResource() {
		return ""
	}
	return TexturePath(l.basePath, img.URI)
}

// TexturePath joins basePath with the file name part of uri.
func TexturePath(basePath, uri string) string {
	if u, err := url.PathUnescape(uri); err == nil {
		uri = u
	}
	return filepath.Join(basePath, path.Base(filepath.ToSlash(uri)))
}

// bake moves the vertices into model space. Normals use the inverse
// transpose so non-uniform scales keep them perpendicular.
func bake(data *geometry.MeshData, m mgl32.Mat4) {
	if m == mgl32.Ident4() {
		return
	}
	normalMat := m.Mat3().Inv().Transpose()
	for i := range data.Vertices {
		v := &data.Vertices[i]
		v.Position = mgl32.TransformCoordinate(v.Position, m)
		if v.Normal.Len() > 0 {
			v.Normal = normalMat.Mul3x1(v.Normal).Normalize()
		}
	}
}
