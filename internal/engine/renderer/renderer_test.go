package renderer

import (
	"testing"

	"github.com/Faultbox/modelview/internal/engine/scene"
	"github.com/Faultbox/modelview/pkg/math"
	"github.com/Faultbox/modelview/pkg/scenegraph"
)

func directional(x float32, shadow bool) scene.LightItem {
	return scene.LightItem{
		Type:       scenegraph.LightDirectional,
		Color:      [3]float32{1, 0.5, 0},
		Intensity:  2,
		Direction:  math.Vec3{X: x, Y: -1},
		CastShadow: shadow,
	}
}

func TestCollectLights(t *testing.T) {
	ambient := scene.LightItem{Type: scenegraph.LightAmbient, Color: [3]float32{0.5, 0.5, 0.5}, Intensity: 1.2}

	tests := []struct {
		name      string
		lights    []scene.LightItem
		count     int32
		caster    int32
		casterDir math.Vec3
	}{
		{"none", nil, 0, -1, math.Vec3{}},
		{"ambient only", []scene.LightItem{ambient, ambient}, 0, -1, math.Vec3{}},
		{"no caster", []scene.LightItem{ambient, directional(1, false), directional(2, false)}, 2, -1, math.Vec3{}},
		{"second casts", []scene.LightItem{directional(1, false), ambient, directional(2, true)}, 2, 1, math.Vec3{X: 2, Y: -1}},
		{"first caster wins", []scene.LightItem{directional(1, true), directional(2, true)}, 2, 0, math.Vec3{X: 1, Y: -1}},
		{"caster past the limit", []scene.LightItem{
			directional(1, false), directional(2, false), directional(3, false), directional(4, false), directional(5, true),
		}, maxDirectionalLights, -1, math.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ls := collectLights(tt.lights)
			if ls.count != tt.count {
				t.Errorf("count = %d, want %d", ls.count, tt.count)
			}
			if ls.caster != tt.caster {
				t.Errorf("caster = %d, want %d", ls.caster, tt.caster)
			}
			if ls.casterDir != tt.casterDir {
				t.Errorf("caster direction = %v, want %v", ls.casterDir, tt.casterDir)
			}
		})
	}
}

func TestCollectLightsScalesByIntensity(t *testing.T) {
	ls := collectLights([]scene.LightItem{
		{Type: scenegraph.LightAmbient, Color: [3]float32{0.25, 0.5, 1}, Intensity: 2},
		{Type: scenegraph.LightAmbient, Color: [3]float32{1, 1, 1}, Intensity: 0.5},
		directional(0, true),
	})

	if want := [3]float32{1, 1.5, 2.5}; ls.ambient != want {
		t.Errorf("ambient = %v, want %v", ls.ambient, want)
	}
	if want := [3]float32{2, 1, 0}; ls.colors[0] != want {
		t.Errorf("color = %v, want %v", ls.colors[0], want)
	}
	if want := [3]float32{0, -1, 0}; ls.dirs[0] != want {
		t.Errorf("direction = %v, want %v", ls.dirs[0], want)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ClearColor[3] != 0 {
		t.Errorf("clear alpha = %v, want transparent", cfg.ClearColor[3])
	}
	if !cfg.Shadows || cfg.ShadowResolution != 2048 {
		t.Errorf("shadows = %v at %d, want enabled at 2048", cfg.Shadows, cfg.ShadowResolution)
	}
}

func TestDestroyWithoutResources(t *testing.T) {
	r := &Renderer{meshes: make(map[scene.MeshHandle]*gpuMesh)}
	r.Destroy()
	r.Destroy()
	if r.program != nil || r.depth != nil || r.shadowMap != nil {
		t.Error("Destroy left GPU handles behind")
	}
}
