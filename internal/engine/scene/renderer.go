package scene

import (
	"github.com/Faultbox/modelview/internal/engine/surface"
	"github.com/Faultbox/modelview/pkg/math"
	"github.com/Faultbox/modelview/pkg/scenegraph"
)

// MeshHandle identifies mesh data uploaded to a renderer.
type MeshHandle uint32

// Renderer draws frames onto a surface. It is also the drawable the owner
// attaches to that surface.
type Renderer interface {
	surface.Drawable

	// UploadMesh copies mesh data to the GPU.
	UploadMesh(mesh *scenegraph.Mesh) (MeshHandle, error)
	ReleaseMesh(h MeshHandle)
	SetViewport(w, h int)
	// Draw renders one complete frame.
	Draw(frame *Frame) error
	// Destroy frees every remaining renderer resource.
	Destroy()
}

// DrawItem is one mesh draw.
type DrawItem struct {
	Mesh     MeshHandle
	Model    math.Mat4
	Material *scenegraph.Material
}

// LightItem is a light with its direction in world space.
type LightItem struct {
	Type      scenegraph.LightType
	Color     [3]float32
	Intensity float32
	Direction math.Vec3
	// CastShadow is only honored for directional lights.
	CastShadow bool
}

// Frame is everything a renderer needs to draw the scene once.
type Frame struct {
	Projection math.Mat4
	View       math.Mat4
	Eye        math.Vec3
	Lights     []LightItem
	Draws      []DrawItem
	// Bounds encloses the model in world space. Empty when no model is
	// attached.
	Bounds scenegraph.Bounds
}
