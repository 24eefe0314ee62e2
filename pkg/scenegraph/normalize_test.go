package scenegraph

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/Faultbox/modelview/pkg/math"
)

func boxModel(min, max math.Vec3) *Node {
	root := NewGroup("model")
	root.Add(NewMeshNode("box", &Mesh{Positions: []math.Vec3{
		min,
		{X: max.X, Y: min.Y, Z: min.Z},
		{X: min.X, Y: max.Y, Z: max.Z},
		max,
	}}))
	return root
}

func approx(a, b float32) bool {
	d := a - b
	return d < 1e-4 && d > -1e-4
}

func TestNormalizeKeepsSmallModelsAtUnitScale(t *testing.T) {
	tests := []struct {
		name     string
		min, max math.Vec3
	}{
		{"unit cube", math.Vec3{}, math.Vec3{X: 1, Y: 1, Z: 1}},
		{"exactly canonical", math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{X: 1, Y: 1, Z: 1}},
		{"offset flat", math.Vec3{X: 10, Y: 10, Z: 10}, math.Vec3{X: 11.5, Y: 10, Z: 10.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := boxModel(tt.min, tt.max)
			n, err := Normalize(root, DefaultCanonicalSize)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if n.Scale != 1 {
				t.Errorf("Scale = %v, want 1", n.Scale)
			}
			center := tt.min.Add(tt.max).Scale(0.5)
			if !n.Translation.ApproxEqual(center.Neg(), 1e-5) {
				t.Errorf("Translation = %v, want %v", n.Translation, center.Neg())
			}
			after := ComputeBounds(root)
			if !after.Center().ApproxEqual(math.Vec3{}, 1e-4) {
				t.Errorf("center after normalize = %v, want origin", after.Center())
			}
		})
	}
}

func TestNormalizeShrinksLargeModels(t *testing.T) {
	root := boxModel(math.Vec3{X: 0, Y: 0, Z: 0}, math.Vec3{X: 10, Y: 4, Z: 2})

	n, err := Normalize(root, DefaultCanonicalSize)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if !approx(n.Scale, 0.2) {
		t.Errorf("Scale = %v, want 0.2", n.Scale)
	}
	if want := (math.Vec3{X: -5, Y: -2, Z: -1}); !n.Translation.ApproxEqual(want, 1e-5) {
		t.Errorf("Translation = %v, want %v", n.Translation, want)
	}

	after := ComputeBounds(root)
	if !after.Center().ApproxEqual(math.Vec3{}, 1e-4) {
		t.Errorf("center after normalize = %v, want origin", after.Center())
	}
	if !approx(after.LargestExtent(), 2) {
		t.Errorf("largest extent after normalize = %v, want 2", after.LargestExtent())
	}
}

func TestNormalizeRandomBoxes(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		min := math.Vec3{X: rng.Float32()*200 - 100, Y: rng.Float32()*200 - 100, Z: rng.Float32()*200 - 100}
		size := math.Vec3{X: rng.Float32() * 50, Y: rng.Float32() * 50, Z: rng.Float32() * 50}
		root := boxModel(min, min.Add(size))

		extent := size.MaxComponent()
		n, err := Normalize(root, DefaultCanonicalSize)
		if err != nil {
			t.Fatalf("Normalize() error = %v", err)
		}

		after := ComputeBounds(root)
		if extent <= DefaultCanonicalSize {
			if n.Scale != 1 {
				t.Fatalf("box %d extent %v: Scale = %v, want 1", i, extent, n.Scale)
			}
			continue
		}
		if want := DefaultCanonicalSize / extent; !approx(n.Scale, want) {
			t.Fatalf("box %d: Scale = %v, want %v", i, n.Scale, want)
		}
		if !after.Center().ApproxEqual(math.Vec3{}, 1e-3) {
			t.Fatalf("box %d: center after = %v, want origin", i, after.Center())
		}
		if d := after.LargestExtent() - 2; d > 1e-3 || d < -1e-3 {
			t.Fatalf("box %d: extent after = %v, want 2", i, after.LargestExtent())
		}
	}
}

func TestNormalizeSinglePoint(t *testing.T) {
	root := NewGroup("model")
	p := math.Vec3{X: 3, Y: -4, Z: 5}
	root.Add(NewMeshNode("dot", &Mesh{Positions: []math.Vec3{p}}))

	n, err := Normalize(root, DefaultCanonicalSize)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if n.Scale != 1 {
		t.Errorf("Scale = %v, want 1", n.Scale)
	}
	if n.Translation != p.Neg() {
		t.Errorf("Translation = %v, want %v", n.Translation, p.Neg())
	}
	if root.Transform.Translation != p.Neg() {
		t.Errorf("root translation = %v, want %v", root.Transform.Translation, p.Neg())
	}
}

func TestNormalizeOnlyTouchesRoot(t *testing.T) {
	root := boxModel(math.Vec3{}, math.Vec3{X: 8, Y: 8, Z: 8})
	child := root.Children()[0]
	before := child.Transform

	if _, err := Normalize(root, DefaultCanonicalSize); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if child.Transform != before {
		t.Errorf("child transform changed: %+v, want %+v", child.Transform, before)
	}
	if root.Transform.Rotation != math.QuatIdentity() {
		t.Errorf("root rotation changed: %v", root.Transform.Rotation)
	}
}

func TestNormalizeRespectsExistingRootTransform(t *testing.T) {
	root := boxModel(math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{X: 1, Y: 1, Z: 1})
	root.Transform.Translation = math.Vec3{X: 7, Y: 1}
	root.Transform.Rotation = math.QuatFromYaw(0.4)
	root.Transform.Scale = math.Vec3{X: 3, Y: 3, Z: 3}

	if _, err := Normalize(root, DefaultCanonicalSize); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	after := ComputeBounds(root)
	if !after.Center().ApproxEqual(math.Vec3{}, 1e-4) {
		t.Errorf("center after = %v, want origin", after.Center())
	}
	if !approx(after.LargestExtent(), 2) {
		t.Errorf("extent after = %v, want 2", after.LargestExtent())
	}
}

func TestNormalizeEmptySubtree(t *testing.T) {
	root := NewGroup("empty")
	root.Add(NewLightNode("l", &Light{}))

	_, err := Normalize(root, DefaultCanonicalSize)
	if !errors.Is(err, ErrEmptySubtree) {
		t.Errorf("Normalize() error = %v, want ErrEmptySubtree", err)
	}
}

func TestNormalizeNonPositiveSizeUsesDefault(t *testing.T) {
	root := boxModel(math.Vec3{}, math.Vec3{X: 4})
	n, err := Normalize(root, 0)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if !approx(n.Scale, 0.5) {
		t.Errorf("Scale = %v, want 0.5", n.Scale)
	}
}
