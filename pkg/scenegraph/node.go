// Package scenegraph provides the viewer's scene tree: transform nodes
// tagged as groups, meshes or lights, plus bounds, normalization and
// animation clips that operate on them.
package scenegraph

import (
	"github.com/Faultbox/modelview/pkg/math"
)

// Kind tags the payload a Node carries.
type Kind uint8

const (
	KindGroup Kind = iota
	KindMesh
	KindLight
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindMesh:
		return "mesh"
	case KindLight:
		return "light"
	default:
		return "unknown"
	}
}

// Transform is a node's local translation, rotation and scale.
type Transform struct {
	Translation math.Vec3
	Rotation    math.Quat
	Scale       math.Vec3
}

// IdentityTransform returns a transform that leaves points unchanged.
func IdentityTransform() Transform {
	return Transform{
		Rotation: math.QuatIdentity(),
		Scale:    math.Vec3{X: 1, Y: 1, Z: 1},
	}
}

// Matrix returns T * R * S.
func (t Transform) Matrix() math.Mat4 {
	return math.FromTRS(t.Translation, t.Rotation, t.Scale)
}

// Material holds the surface parameters the renderer needs.
type Material struct {
	Name        string
	BaseColor   [4]float32
	DoubleSided bool
	// Emissive is linear light added regardless of lighting, already
	// multiplied by its intensity.
	Emissive [3]float32
}

// DefaultMaterial is used for meshes that reference no material.
func DefaultMaterial() *Material {
	return &Material{Name: "default", BaseColor: [4]float32{0.8, 0.8, 0.8, 1}}
}

// Mesh is renderable triangle geometry in node-local space.
type Mesh struct {
	Name      string
	Positions []math.Vec3
	Normals   []math.Vec3
	Indices   []uint32
	Material  *Material
}

// VertexCount returns the number of positions.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// LightType identifies a light model.
type LightType uint8

const (
	LightAmbient LightType = iota
	LightDirectional
)

// Light is a light payload. Direction points from the light toward the scene
// and is ignored for ambient lights. Only directional lights cast shadows.
type Light struct {
	Type       LightType
	Color      [3]float32
	Intensity  float32
	Direction  math.Vec3
	CastShadow bool
}

// Node is one element of the scene tree.
type Node struct {
	Name      string
	Kind      Kind
	Transform Transform

	// Mesh is set for KindMesh nodes, Light for KindLight nodes.
	Mesh  *Mesh
	Light *Light

	parent   *Node
	children []*Node
}

// NewGroup creates an empty transform node.
func NewGroup(name string) *Node {
	return &Node{Name: name, Kind: KindGroup, Transform: IdentityTransform()}
}

// NewMeshNode creates a node carrying mesh.
func NewMeshNode(name string, mesh *Mesh) *Node {
	return &Node{Name: name, Kind: KindMesh, Transform: IdentityTransform(), Mesh: mesh}
}

// NewLightNode creates a node carrying light.
func NewLightNode(name string, light *Light) *Node {
	return &Node{Name: name, Kind: KindLight, Transform: IdentityTransform(), Light: light}
}

// Parent returns the node's parent, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the node's children. The slice must not be modified.
func (n *Node) Children() []*Node {
	return n.children
}

// Add appends child, detaching it from any previous parent first.
func (n *Node) Add(child *Node) {
	if child == nil || child == n {
		return
	}
	child.Detach()
	child.parent = n
	n.children = append(n.children, child)
}

// Remove detaches child from n. It reports whether child was found.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// Detach removes n from its parent, if any.
func (n *Node) Detach() {
	if n.parent != nil {
		n.parent.Remove(n)
	}
}

// Clear detaches every child.
func (n *Node) Clear() {
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = nil
}

// Walk visits n and its descendants depth-first. world is the accumulated
// transform of the visited node given parent as the transform above n.
// Returning false from fn skips the node's children.
func (n *Node) Walk(parent math.Mat4, fn func(node *Node, world math.Mat4) bool) {
	world := parent.Mul(n.Transform.Matrix())
	if !fn(n, world) {
		return
	}
	for _, c := range n.children {
		c.Walk(world, fn)
	}
}

// WorldMatrix returns the transform from n's local space to the root's parent space.
func (n *Node) WorldMatrix() math.Mat4 {
	m := n.Transform.Matrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.Transform.Matrix().Mul(m)
	}
	return m
}

// Find returns the first node in the subtree with the given name.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Walk(math.Identity(), func(node *Node, _ math.Mat4) bool {
		if found != nil {
			return false
		}
		if node.Name == name {
			found = node
			return false
		}
		return true
	})
	return found
}

// Meshes returns every mesh node in the subtree.
func (n *Node) Meshes() []*Node {
	var out []*Node
	n.Walk(math.Identity(), func(node *Node, _ math.Mat4) bool {
		if node.Kind == KindMesh && node.Mesh != nil {
			out = append(out, node)
		}
		return true
	})
	return out
}
