package shadow

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/modelview/pkg/math"
	"github.com/Faultbox/modelview/pkg/scenegraph"
)

// DirectionalLightMatrix returns the view-projection of a directional light
// shining along dir onto the box b. The orthographic volume encloses the
// sphere around b with some padding, so the result does not change while
// the model spins about its center.
func DirectionalLightMatrix(dir math.Vec3, b scenegraph.Bounds) math.Mat4 {
	dir = dir.Normalize()
	if dir == (math.Vec3{}) {
		dir = math.Vec3{Y: -1}
	}

	center := math.Vec3{}
	radius := float32(1)
	if !b.IsEmpty() {
		center = b.Center()
		if r := b.Radius(); r > 0 {
			radius = r
		}
	}

	distance := radius * 2
	eye := center.Sub(dir.Scale(distance))

	up := math.Vec3{Y: 1}
	if math32.Abs(dir.Y) > 0.99 {
		up = math.Vec3{Z: 1}
	}
	view := math.LookAt(eye, center, up)

	padding := radius * 0.1
	half := radius + padding
	proj := math.Ortho(-half, half, -half, half, 0.1, distance+radius+padding)

	return proj.Mul(view)
}
