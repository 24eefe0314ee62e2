package formats

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/modelview/pkg/math"
	"github.com/Faultbox/modelview/pkg/scenegraph"
)

// ErrExternalBuffer is returned for a remote document that references
// buffers outside itself.
var ErrExternalBuffer = errors.New("formats: external buffers need a local document")

// GLTF parses glTF 2.0 documents: JSON with embedded or sibling buffers, or GLB.
type GLTF struct {
	// Resolve maps a local locator to the file it names, so that external
	// buffers are read from the document's directory. Nil uses the locator
	// as a path.
	Resolve func(locator string) (string, error)
}

// Parse implements Parser. name is the locator the data was fetched from.
func (g GLTF) Parse(data []byte, name string) (*scenegraph.Asset, error) {
	asset, err := decodeGLTF(data, g.readHandler(name))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return asset, nil
}

// readHandler reads external buffers next to the document for local
// locators and refuses them for remote ones.
func (g GLTF) readHandler(name string) gltf.ReadHandler {
	path := name
	if i := strings.Index(name, "://"); i > 1 {
		if !strings.EqualFold(name[:i], "file") {
			return remoteHandler{}
		}
		if u, err := url.Parse(name); err == nil {
			path = filepath.FromSlash(u.Path)
		}
	}
	if g.Resolve != nil {
		if resolved, err := g.Resolve(name); err == nil {
			path = resolved
		}
	}
	return &gltf.RelativeFileHandler{Dir: filepath.Dir(path)}
}

type remoteHandler struct{}

func (remoteHandler) ReadFullResource(uri string, _ []byte) error {
	return fmt.Errorf("%w: %s", ErrExternalBuffer, uri)
}

// ParseGLTF decodes a glTF document and converts its default scene.
// External buffers are read relative to the working directory.
func ParseGLTF(data []byte) (*scenegraph.Asset, error) {
	return decodeGLTF(data, new(gltf.RelativeFileHandler))
}

func decodeGLTF(data []byte, h gltf.ReadHandler) (*scenegraph.Asset, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).WithReadHandler(h).Decode(doc); err != nil {
		return nil, fmt.Errorf("decoding glTF: %w", err)
	}

	b := &gltfBuilder{
		doc:       doc,
		nodes:     make([]*scenegraph.Node, len(doc.Nodes)),
		materials: make(map[uint32]*scenegraph.Material),
	}
	root, err := b.buildScene()
	if err != nil {
		return nil, err
	}
	if len(root.Meshes()) == 0 {
		return nil, ErrNoGeometry
	}

	clips, err := b.buildClips()
	if err != nil {
		return nil, err
	}

	return &scenegraph.Asset{Root: root, Clips: clips}, nil
}

type gltfBuilder struct {
	doc       *gltf.Document
	nodes     []*scenegraph.Node
	materials map[uint32]*scenegraph.Material
}

// buildScene converts the default scene (or the first one, or every
// parentless node when the file declares no scenes) under one group.
func (b *gltfBuilder) buildScene() (*scenegraph.Node, error) {
	root := scenegraph.NewGroup("scene")

	var roots []uint32
	switch {
	case len(b.doc.Scenes) > 0:
		idx := uint32(0)
		if b.doc.Scene != nil && int(*b.doc.Scene) < len(b.doc.Scenes) {
			idx = *b.doc.Scene
		}
		root.Name = b.doc.Scenes[idx].Name
		roots = b.doc.Scenes[idx].Nodes
	default:
		roots = b.parentlessNodes()
	}

	for _, idx := range roots {
		n, err := b.buildNode(idx, 0)
		if err != nil {
			return nil, err
		}
		root.Add(n)
	}
	return root, nil
}

func (b *gltfBuilder) parentlessNodes() []uint32 {
	hasParent := make([]bool, len(b.doc.Nodes))
	for _, n := range b.doc.Nodes {
		for _, c := range n.Children {
			if int(c) < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var out []uint32
	for i, p := range hasParent {
		if !p {
			out = append(out, uint32(i))
		}
	}
	return out
}

// maxNodeDepth guards against cyclic child references.
const maxNodeDepth = 256

func (b *gltfBuilder) buildNode(idx uint32, depth int) (*scenegraph.Node, error) {
	if int(idx) >= len(b.doc.Nodes) {
		return nil, fmt.Errorf("node %d out of range", idx)
	}
	if depth > maxNodeDepth {
		return nil, fmt.Errorf("node %d: hierarchy deeper than %d", idx, maxNodeDepth)
	}
	if b.nodes[idx] != nil {
		return nil, fmt.Errorf("node %d referenced twice", idx)
	}

	src := b.doc.Nodes[idx]
	n := scenegraph.NewGroup(src.Name)
	b.nodes[idx] = n
	n.Transform = nodeTransform(src)

	if src.Mesh != nil {
		if err := b.addMesh(n, *src.Mesh); err != nil {
			return nil, fmt.Errorf("node %d: %w", idx, err)
		}
	}

	for _, c := range src.Children {
		child, err := b.buildNode(c, depth+1)
		if err != nil {
			return nil, err
		}
		n.Add(child)
	}
	return n, nil
}

func nodeTransform(src *gltf.Node) scenegraph.Transform {
	if m := math.Mat4(src.MatrixOrDefault()); m != math.Identity() {
		t, r, s := m.Decompose()
		return scenegraph.Transform{Translation: t, Rotation: r, Scale: s}
	}
	r := src.RotationOrDefault()
	return scenegraph.Transform{
		Translation: math.Vec3From(src.TranslationOrDefault()),
		Rotation:    math.Quat{X: r[0], Y: r[1], Z: r[2], W: r[3]},
		Scale:       math.Vec3From(src.ScaleOrDefault()),
	}
}

// addMesh attaches one mesh child per triangle primitive.
func (b *gltfBuilder) addMesh(parent *scenegraph.Node, meshIdx uint32) error {
	if int(meshIdx) >= len(b.doc.Meshes) {
		return fmt.Errorf("mesh %d out of range", meshIdx)
	}
	src := b.doc.Meshes[meshIdx]

	for i, prim := range src.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		mesh, err := b.readPrimitive(prim)
		if err != nil {
			return fmt.Errorf("mesh %q primitive %d: %w", src.Name, i, err)
		}
		mesh.Name = fmt.Sprintf("%s/%d", src.Name, i)
		parent.Add(scenegraph.NewMeshNode(mesh.Name, mesh))
	}
	return nil
}

func (b *gltfBuilder) readPrimitive(prim *gltf.Primitive) (*scenegraph.Mesh, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("no %s attribute", gltf.POSITION)
	}
	acr, err := b.accessor(posIdx)
	if err != nil {
		return nil, err
	}
	positions, err := modeler.ReadPosition(b.doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}

	mesh := &scenegraph.Mesh{Positions: make([]math.Vec3, len(positions))}
	for i, p := range positions {
		mesh.Positions[i] = math.Vec3From(p)
	}

	// Missing or unreadable normals are recomputed by the renderer.
	if nIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if acr, err := b.accessor(nIdx); err == nil {
			if normals, err := modeler.ReadNormal(b.doc, acr, nil); err == nil && len(normals) == len(positions) {
				mesh.Normals = make([]math.Vec3, len(normals))
				for i, n := range normals {
					mesh.Normals[i] = math.Vec3From(n)
				}
			}
		}
	}

	if prim.Indices != nil {
		acr, err := b.accessor(*prim.Indices)
		if err != nil {
			return nil, err
		}
		mesh.Indices, err = modeler.ReadIndices(b.doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("reading indices: %w", err)
		}
		for _, ix := range mesh.Indices {
			if int(ix) >= len(positions) {
				return nil, fmt.Errorf("index %d out of range (%d vertices)", ix, len(positions))
			}
		}
	}

	mesh.Material = b.material(prim.Material)
	return mesh, nil
}

func (b *gltfBuilder) accessor(idx uint32) (*gltf.Accessor, error) {
	if int(idx) >= len(b.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	return b.doc.Accessors[idx], nil
}

func (b *gltfBuilder) material(idx *uint32) *scenegraph.Material {
	if idx == nil || int(*idx) >= len(b.doc.Materials) {
		return scenegraph.DefaultMaterial()
	}
	if m, ok := b.materials[*idx]; ok {
		return m
	}

	src := b.doc.Materials[*idx]
	m := &scenegraph.Material{
		Name:        src.Name,
		BaseColor:   [4]float32{1, 1, 1, 1},
		DoubleSided: src.DoubleSided,
	}
	if src.PBRMetallicRoughness != nil {
		m.BaseColor = src.PBRMetallicRoughness.BaseColorFactorOrDefault()
	}
	b.materials[*idx] = m
	return m
}
