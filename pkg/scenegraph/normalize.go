package scenegraph

import (
	"errors"

	"github.com/Faultbox/modelview/pkg/math"
)

// DefaultCanonicalSize is the largest extent a normalized model may have.
const DefaultCanonicalSize float32 = 2

// ErrEmptySubtree is returned when a subtree has no renderable vertex.
var ErrEmptySubtree = errors.New("scenegraph: subtree has no renderable geometry")

// Normalization describes the correction applied to a subtree root.
// Translation is applied before Scale.
type Normalization struct {
	Bounds      Bounds
	Translation math.Vec3
	Scale       float32
}

// Normalize centers root's geometry on the origin and shrinks it so its
// largest extent does not exceed canonicalSize. Models already within the
// canonical size keep scale 1. Only root's transform is changed.
func Normalize(root *Node, canonicalSize float32) (Normalization, error) {
	if canonicalSize <= 0 {
		canonicalSize = DefaultCanonicalSize
	}

	b := ComputeBounds(root)
	if b.IsEmpty() {
		return Normalization{}, ErrEmptySubtree
	}

	n := Normalization{
		Bounds:      b,
		Translation: b.Center().Neg(),
		Scale:       1,
	}
	if extent := b.LargestExtent(); extent > canonicalSize {
		n.Scale = canonicalSize / extent
	}

	// S(s) * T(-c) * TRS folds into a single TRS because s is uniform.
	t := &root.Transform
	t.Translation = t.Translation.Add(n.Translation).Scale(n.Scale)
	t.Scale = t.Scale.Scale(n.Scale)

	return n, nil
}
