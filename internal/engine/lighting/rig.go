// Package lighting builds the fixed light set every viewer scene carries.
package lighting

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/modelview/pkg/math"
	"github.com/Faultbox/modelview/pkg/scenegraph"
)

// Light node names inside the rig group.
const (
	AmbientName = "light/ambient"
	KeyName     = "light/key"
	FillName    = "light/fill"
)

// Spec describes one light. Direction is ignored for the ambient light and
// for the emissive tint.
type Spec struct {
	Color      [3]float32
	Intensity  float32
	Direction  [3]float32
	CastShadow bool
}

// Rig is an ambient light, two directional lights and the emissive tint
// given to every material of a mounted model.
type Rig struct {
	Ambient  Spec
	Key      Spec
	Fill     Spec
	Emissive Spec
}

// DefaultRig returns the retro look: dim gray ambient light, a cyan key
// light from (5,5,5) that casts shadows, a magenta fill light from
// (-5,2,-5) and a faint dark blue glow on every surface.
func DefaultRig() Rig {
	return Rig{
		Ambient:  Spec{Color: HexColor(0x404040), Intensity: 1.2},
		Key:      Spec{Color: HexColor(0x00ffd5), Intensity: 2, Direction: [3]float32{-5, -5, -5}, CastShadow: true},
		Fill:     Spec{Color: HexColor(0xff00aa), Intensity: 1, Direction: [3]float32{5, -2, 5}},
		Emissive: Spec{Color: HexColor(0x001122), Intensity: 0.1},
	}
}

// HexColor converts a 0xRRGGBB sRGB color to linear components.
func HexColor(rgb uint32) [3]float32 {
	return [3]float32{
		srgbToLinear(uint8(rgb >> 16)),
		srgbToLinear(uint8(rgb >> 8)),
		srgbToLinear(uint8(rgb)),
	}
}

func srgbToLinear(c uint8) float32 {
	v := float32(c) / 255
	if v <= 0.04045 {
		return v / 12.92
	}
	return math32.Pow((v+0.055)/1.055, 2.4)
}

// Build returns a group holding one light node per rig light.
// Directions are normalized.
func (r Rig) Build() *scenegraph.Node {
	group := scenegraph.NewGroup("lights")
	group.Add(scenegraph.NewLightNode(AmbientName, &scenegraph.Light{
		Type:      scenegraph.LightAmbient,
		Color:     r.Ambient.Color,
		Intensity: r.Ambient.Intensity,
	}))
	group.Add(directional(KeyName, r.Key))
	group.Add(directional(FillName, r.Fill))
	return group
}

func directional(name string, s Spec) *scenegraph.Node {
	dir := math.Vec3From(s.Direction).Normalize()
	if dir == (math.Vec3{}) {
		dir = math.Vec3{Y: -1}
	}
	return scenegraph.NewLightNode(name, &scenegraph.Light{
		Type:       scenegraph.LightDirectional,
		Color:      s.Color,
		Intensity:  s.Intensity,
		Direction:  dir,
		CastShadow: s.CastShadow,
	})
}
