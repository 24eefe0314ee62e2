package viewer

import (
	"fmt"

	"github.com/Faultbox/modelview/internal/engine/camera"
	"github.com/Faultbox/modelview/internal/engine/lighting"
	"github.com/Faultbox/modelview/internal/engine/surface"
	"github.com/Faultbox/modelview/pkg/math"
	"github.com/Faultbox/modelview/pkg/scenegraph"
)

// Config is fixed for the lifetime of a viewer. Changing any of it means
// closing the viewer and creating a new one.
type Config struct {
	AssetLocator   string
	Surface        surface.Surface
	Width, Height  int
	AutoRotate     bool
	CameraPosition math.Vec3

	// Optional tuning. Zero values take the package defaults.
	CanonicalSize float32
	Timestep      float32
	RotateStep    float32
	FOVDegrees    float32
	Near, Far     float32
	Lights        *lighting.Rig
}

// PreconditionError reports a Config or Host that no viewer can be built from.
type PreconditionError struct {
	Field  string
	Reason string
	Err    error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("viewer: invalid %s: %s", e.Field, e.Reason)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// withDefaults fills unset tuning fields.
func (c Config) withDefaults() Config {
	if c.CanonicalSize <= 0 {
		c.CanonicalSize = scenegraph.DefaultCanonicalSize
	}
	if c.FOVDegrees == 0 {
		c.FOVDegrees = camera.DefaultFOVDegrees
	}
	if c.Near == 0 {
		c.Near = camera.DefaultNear
	}
	if c.Far == 0 {
		c.Far = camera.DefaultFar
	}
	if c.Lights == nil {
		rig := lighting.DefaultRig()
		c.Lights = &rig
	}
	return c
}

func (c *Config) validate() error {
	switch {
	case c.AssetLocator == "":
		return &PreconditionError{Field: "AssetLocator", Reason: "must not be empty"}
	case c.Surface == nil:
		return &PreconditionError{Field: "Surface", Reason: "must not be nil"}
	case c.Width <= 0 || c.Height <= 0:
		return &PreconditionError{
			Field:  "InitialSize",
			Reason: fmt.Sprintf("%dx%d has zero area", c.Width, c.Height),
		}
	case c.Near <= 0 || c.Far <= c.Near:
		return &PreconditionError{
			Field:  "Near/Far",
			Reason: fmt.Sprintf("%v/%v must satisfy 0 < near < far", c.Near, c.Far),
		}
	case c.FOVDegrees <= 0 || c.FOVDegrees >= 180:
		return &PreconditionError{Field: "FOVDegrees", Reason: fmt.Sprintf("%v is outside (0, 180)", c.FOVDegrees)}
	}
	return nil
}

func (h *Host) validate() error {
	switch {
	case h.Frames == nil:
		return &PreconditionError{Field: "Host.Frames", Reason: "must not be nil"}
	case h.Dispatcher == nil:
		return &PreconditionError{Field: "Host.Dispatcher", Reason: "must not be nil"}
	case h.Renderer == nil:
		return &PreconditionError{Field: "Host.Renderer", Reason: "must not be nil"}
	case h.Fetcher == nil:
		return &PreconditionError{Field: "Host.Fetcher", Reason: "must not be nil"}
	case h.Parser == nil:
		return &PreconditionError{Field: "Host.Parser", Reason: "must not be nil"}
	}
	return nil
}
