package animation

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/modelview/pkg/math"
	"github.com/Faultbox/modelview/pkg/scenegraph"
)

func slideClip(target *scenegraph.Node, duration float32) *scenegraph.Clip {
	return scenegraph.NewClip("slide", []scenegraph.Channel{{
		Target: target,
		Path:   scenegraph.PathTranslation,
		Times:  []float32{0, duration},
		Vec3s:  []math.Vec3{{}, {X: duration}},
	}})
}

func TestTickAdvancesAndLoops(t *testing.T) {
	node := scenegraph.NewGroup("n")
	d := NewDriver(nil, Options{Timestep: 0.25})
	d.SetClips([]*scenegraph.Clip{slideClip(node, 1)})

	wantCursors := []float32{0.25, 0.5, 0.75, 0, 0.25}
	for i, want := range wantCursors {
		d.Tick()
		if got := d.Cursor(0); math32.Abs(got-want) > 1e-6 {
			t.Errorf("tick %d: cursor = %v, want %v", i+1, got, want)
		}
		if got := node.Transform.Translation.X; math32.Abs(got-want) > 1e-6 {
			t.Errorf("tick %d: translation.x = %v, want %v", i+1, got, want)
		}
	}
}

func TestClipsPlaySimultaneously(t *testing.T) {
	a := scenegraph.NewGroup("a")
	b := scenegraph.NewGroup("b")
	d := NewDriver(nil, Options{Timestep: 0.5})
	d.SetClips([]*scenegraph.Clip{slideClip(a, 1), slideClip(b, 2)})

	d.Tick()
	d.Tick()
	d.Tick()

	if got := d.Cursor(0); math32.Abs(got-0.5) > 1e-6 {
		t.Errorf("short clip cursor = %v, want 0.5", got)
	}
	if got := d.Cursor(1); math32.Abs(got-1.5) > 1e-6 {
		t.Errorf("long clip cursor = %v, want 1.5", got)
	}
	if a.Transform.Translation.X != 0.5 || b.Transform.Translation.X != 1.5 {
		t.Errorf("translations = %v, %v, want 0.5 and 1.5", a.Transform.Translation.X, b.Transform.Translation.X)
	}
}

func TestSetClipsRewinds(t *testing.T) {
	node := scenegraph.NewGroup("n")
	clip := slideClip(node, 1)
	d := NewDriver(nil, Options{Timestep: 0.25})
	d.SetClips([]*scenegraph.Clip{clip})
	d.Tick()

	d.SetClips([]*scenegraph.Clip{clip, nil})
	if d.Clips() != 1 {
		t.Fatalf("Clips() = %d, want 1", d.Clips())
	}
	if d.Cursor(0) != 0 || node.Transform.Translation.X != 0 {
		t.Errorf("cursor = %v, x = %v after SetClips, want 0", d.Cursor(0), node.Transform.Translation.X)
	}

	d.SetClips(nil)
	d.Tick()
	if d.Clips() != 0 {
		t.Errorf("Clips() = %d, want 0", d.Clips())
	}
}

func TestZeroDurationClip(t *testing.T) {
	node := scenegraph.NewGroup("n")
	clip := scenegraph.NewClip("pose", []scenegraph.Channel{{
		Target: node,
		Path:   scenegraph.PathScale,
		Times:  []float32{0},
		Vec3s:  []math.Vec3{{X: 2, Y: 2, Z: 2}},
	}})
	d := NewDriver(nil, Options{})
	d.SetClips([]*scenegraph.Clip{clip})
	d.Tick()

	if d.Cursor(0) != 0 {
		t.Errorf("cursor = %v, want 0", d.Cursor(0))
	}
	if node.Transform.Scale != (math.Vec3{X: 2, Y: 2, Z: 2}) {
		t.Errorf("scale = %v, want (2,2,2)", node.Transform.Scale)
	}
}

func TestAutoRotate(t *testing.T) {
	pivot := scenegraph.NewGroup("pivot")
	model := scenegraph.NewGroup("model")
	model.Transform.Translation = math.Vec3{X: 1}
	pivot.Add(model)

	d := NewDriver(pivot, Options{AutoRotate: true})
	for i := 0; i < 100; i++ {
		d.Tick()
	}

	if got := d.Yaw(); math32.Abs(got-1) > 1e-4 {
		t.Errorf("Yaw() = %v, want 1", got)
	}
	want := math.RotateY(1).TransformVec3(math.Vec3{X: 1})
	got := model.WorldMatrix().TransformVec3(math.Vec3{})
	if !got.ApproxEqual(want, 1e-4) {
		t.Errorf("model origin = %v, want %v", got, want)
	}
	if model.Transform.Translation != (math.Vec3{X: 1}) {
		t.Error("auto-rotation touched the model transform")
	}

	d.ResetRotation()
	if d.Yaw() != 0 || pivot.Transform.Rotation != math.QuatIdentity() {
		t.Error("ResetRotation() left rotation behind")
	}
}

func TestNoAutoRotate(t *testing.T) {
	pivot := scenegraph.NewGroup("pivot")
	d := NewDriver(pivot, Options{})
	d.Tick()

	if pivot.Transform.Rotation != math.QuatIdentity() {
		t.Errorf("rotation = %v, want identity", pivot.Transform.Rotation)
	}
}

func TestDefaults(t *testing.T) {
	d := NewDriver(nil, Options{})
	if d.opts.Timestep != DefaultTimestep || d.opts.RotateStep != DefaultRotateStep {
		t.Errorf("opts = %+v, want default steps", d.opts)
	}
}
