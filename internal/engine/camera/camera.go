// Package camera provides camera implementations for 3D rendering.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/modelview/pkg/math"
)

// Default projection parameters.
const (
	DefaultFOVDegrees float32 = 75
	DefaultNear       float32 = 0.1
	DefaultFar        float32 = 1000
)

// PerspectiveCamera looks from Position toward Target.
type PerspectiveCamera struct {
	Position math.Vec3
	Target   math.Vec3
	Up       math.Vec3

	// Projection
	FOV    float32 // Vertical field of view (radians)
	Aspect float32 // Width / height
	Near   float32
	Far    float32
}

// NewPerspectiveCamera creates a camera at the origin looking down -Z.
func NewPerspectiveCamera(fovDegrees, aspect, near, far float32) *PerspectiveCamera {
	return &PerspectiveCamera{
		Position: math.Vec3{Z: 5},
		Up:       math.Vec3{Y: 1},
		FOV:      fovDegrees * math32.Pi / 180,
		Aspect:   aspect,
		Near:     near,
		Far:      far,
	}
}

// NewDefault creates a camera with the default projection for a w x h surface.
func NewDefault(w, h int) *PerspectiveCamera {
	c := NewPerspectiveCamera(DefaultFOVDegrees, 1, DefaultNear, DefaultFar)
	c.SetSize(w, h)
	return c
}

// SetSize updates the aspect ratio from a pixel size. FOV and clip planes
// are left alone. Returns false and does nothing when either side is not
// positive.
func (c *PerspectiveCamera) SetSize(w, h int) bool {
	if w <= 0 || h <= 0 {
		return false
	}
	c.Aspect = float32(w) / float32(h)
	return true
}

// Projection returns the projection matrix.
func (c *PerspectiveCamera) Projection() math.Mat4 {
	return math.Perspective(c.FOV, c.Aspect, c.Near, c.Far)
}

// ViewMatrix returns the view matrix for this camera.
func (c *PerspectiveCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position, c.Target, c.Up)
}

// FOVDegrees returns the vertical field of view in degrees.
func (c *PerspectiveCamera) FOVDegrees() float32 {
	return c.FOV * 180 / math32.Pi
}
