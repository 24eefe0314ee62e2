// Package scene owns a viewer's render resources: the surface binding,
// camera, light rig, scene graph and the GPU handles of the attached model.
package scene

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/modelview/internal/engine/camera"
	"github.com/Faultbox/modelview/internal/engine/lighting"
	"github.com/Faultbox/modelview/internal/engine/surface"
	"github.com/Faultbox/modelview/internal/logger"
	"github.com/Faultbox/modelview/pkg/math"
	"github.com/Faultbox/modelview/pkg/scenegraph"
)

// ErrDisposed is returned by operations on a disposed owner.
var ErrDisposed = errors.New("scene: owner disposed")

// Options configures a new Owner.
type Options struct {
	// Camera defaults to camera.NewDefault for the surface size.
	Camera *camera.PerspectiveCamera
	Lights lighting.Rig
}

// Owner holds the scene of one viewer. Every method must be called from the
// host loop.
type Owner struct {
	surface  surface.Surface
	renderer Renderer
	camera   *camera.PerspectiveCamera

	root   *scenegraph.Node
	lights *scenegraph.Node
	pivot  *scenegraph.Node
	model  *scenegraph.Node
	bounds scenegraph.Bounds // model box in pivot space

	handles map[*scenegraph.Mesh]MeshHandle

	disposed bool
	log      *zap.Logger
}

// NewOwner binds r to s and builds an empty scene sized to s.
func NewOwner(s surface.Surface, r Renderer, opts Options) (*Owner, error) {
	if err := s.AttachDrawable(r); err != nil {
		return nil, fmt.Errorf("attaching %s: %w", r.Name(), err)
	}

	w, h := s.Size()
	cam := opts.Camera
	if cam == nil {
		cam = camera.NewDefault(w, h)
	}

	o := &Owner{
		surface:  s,
		renderer: r,
		camera:   cam,
		root:     scenegraph.NewGroup("root"),
		lights:   opts.Lights.Build(),
		pivot:    scenegraph.NewGroup("pivot"),
		bounds:   scenegraph.EmptyBounds(),
		handles:  make(map[*scenegraph.Mesh]MeshHandle),
		log:      logger.Named("scene"),
	}
	o.root.Add(o.lights)
	o.root.Add(o.pivot)
	o.SetCameraAspect(w, h)
	return o, nil
}

// Camera returns the owner's camera.
func (o *Owner) Camera() *camera.PerspectiveCamera {
	return o.camera
}

// Root returns the scene root.
func (o *Owner) Root() *scenegraph.Node {
	return o.root
}

// Pivot returns the group the model hangs from. Auto-rotation turns it.
func (o *Owner) Pivot() *scenegraph.Node {
	return o.pivot
}

// Model returns the attached model subtree, or nil.
func (o *Owner) Model() *scenegraph.Node {
	return o.model
}

// Disposed reports whether Dispose has run.
func (o *Owner) Disposed() bool {
	return o.disposed
}

// AttachModel replaces the current model with model. The previous model's
// meshes are released first. If uploading fails, the meshes uploaded so far
// are released and the scene is left without a model.
func (o *Owner) AttachModel(model *scenegraph.Node) error {
	if o.disposed {
		return ErrDisposed
	}
	o.detachModel()

	for _, n := range model.Meshes() {
		if _, ok := o.handles[n.Mesh]; ok {
			continue
		}
		h, err := o.renderer.UploadMesh(n.Mesh)
		if err != nil {
			o.releaseMeshes()
			return fmt.Errorf("uploading mesh %q: %w", n.Mesh.Name, err)
		}
		o.handles[n.Mesh] = h
	}

	o.pivot.Transform = scenegraph.IdentityTransform()
	o.pivot.Add(model)
	o.model = model
	o.bounds = scenegraph.ComputeBounds(model)
	o.log.Debug("model attached",
		zap.String("name", model.Name),
		zap.Int("meshes", len(o.handles)),
	)
	return nil
}

// DetachModel removes the current model and releases its meshes.
func (o *Owner) DetachModel() {
	if o.disposed {
		return
	}
	o.detachModel()
}

func (o *Owner) detachModel() {
	if o.model == nil {
		return
	}
	o.model.Detach()
	o.model = nil
	o.bounds = scenegraph.EmptyBounds()
	o.releaseMeshes()
}

func (o *Owner) releaseMeshes() {
	for mesh, h := range o.handles {
		o.renderer.ReleaseMesh(h)
		delete(o.handles, mesh)
	}
}

// SetCameraAspect updates the projection and viewport for a w x h surface.
// Non-positive sizes are ignored.
func (o *Owner) SetCameraAspect(w, h int) {
	if o.disposed {
		return
	}
	if !o.camera.SetSize(w, h) {
		o.log.Debug("ignoring empty surface size", zap.Int("width", w), zap.Int("height", h))
		return
	}
	o.renderer.SetViewport(w, h)
}

// RenderFrame draws the current scene once.
func (o *Owner) RenderFrame() error {
	if o.disposed {
		return ErrDisposed
	}
	frame := o.buildFrame()
	if err := o.renderer.Draw(frame); err != nil {
		return fmt.Errorf("drawing frame: %w", err)
	}
	return nil
}

func (o *Owner) buildFrame() *Frame {
	frame := &Frame{
		Projection: o.camera.Projection(),
		View:       o.camera.ViewMatrix(),
		Eye:        o.camera.Position,
		Bounds:     o.bounds.Transform(o.pivot.WorldMatrix()),
	}

	o.root.Walk(math.Identity(), func(n *scenegraph.Node, world math.Mat4) bool {
		switch n.Kind {
		case scenegraph.KindMesh:
			if h, ok := o.handles[n.Mesh]; ok {
				frame.Draws = append(frame.Draws, DrawItem{Mesh: h, Model: world, Material: n.Mesh.Material})
			}
		case scenegraph.KindLight:
			origin := world.TransformVec3(math.Vec3{})
			frame.Lights = append(frame.Lights, LightItem{
				Type:       n.Light.Type,
				Color:      n.Light.Color,
				Intensity:  n.Light.Intensity,
				Direction:  world.TransformVec3(n.Light.Direction).Sub(origin).Normalize(),
				CastShadow: n.Light.CastShadow,
			})
		}
		return true
	})
	return frame
}

// Dispose detaches the renderer from the surface, releases the model,
// clears the scene graph and destroys the renderer. Calling it again does
// nothing.
func (o *Owner) Dispose() {
	if o.disposed {
		return
	}
	o.disposed = true

	o.surface.DetachDrawable(o.renderer)
	o.detachModel()
	o.root.Clear()
	o.renderer.Destroy()
	o.log.Debug("scene disposed")
}
