package scenegraph

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/modelview/pkg/math"
)

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// EmptyBounds returns an inverted box that any point extends.
func EmptyBounds() Bounds {
	inf := math32.Inf(1)
	return Bounds{
		Min: math.Vec3{X: inf, Y: inf, Z: inf},
		Max: math.Vec3{X: -inf, Y: -inf, Z: -inf},
	}
}

// IsEmpty reports whether no point has been added.
func (b Bounds) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Extend grows the box to include p.
func (b *Bounds) Extend(p math.Vec3) {
	b.Min = b.Min.Min(p)
	b.Max = b.Max.Max(p)
}

// Center returns the midpoint of the box.
func (b Bounds) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the extent along each axis.
func (b Bounds) Size() math.Vec3 {
	return b.Max.Sub(b.Min)
}

// LargestExtent returns the longest axis extent.
func (b Bounds) LargestExtent() float32 {
	return b.Size().MaxComponent()
}

// Radius returns the distance from the center to a corner.
func (b Bounds) Radius() float32 {
	return b.Size().Length() / 2
}

// Transform returns the box enclosing the eight corners of b moved by m.
func (b Bounds) Transform(m math.Mat4) Bounds {
	if b.IsEmpty() {
		return b
	}
	out := EmptyBounds()
	for i := 0; i < 8; i++ {
		c := b.Min
		if i&1 != 0 {
			c.X = b.Max.X
		}
		if i&2 != 0 {
			c.Y = b.Max.Y
		}
		if i&4 != 0 {
			c.Z = b.Max.Z
		}
		out.Extend(m.TransformVec3(c))
	}
	return out
}

// ComputeBounds returns the box enclosing every mesh vertex under root,
// expressed in the space of root's parent (root's own transform applied).
func ComputeBounds(root *Node) Bounds {
	b := EmptyBounds()
	root.Walk(math.Identity(), func(node *Node, world math.Mat4) bool {
		if node.Kind != KindMesh || node.Mesh == nil {
			return true
		}
		for _, p := range node.Mesh.Positions {
			b.Extend(world.TransformVec3(p))
		}
		return true
	})
	return b
}
