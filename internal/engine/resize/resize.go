// Package resize keeps the camera in step with the surface size.
package resize

import (
	"github.com/Faultbox/modelview/internal/engine/surface"
)

// Target receives the surface size after every change.
type Target interface {
	SetCameraAspect(w, h int)
}

// TargetFunc adapts a function to Target.
type TargetFunc func(w, h int)

// SetCameraAspect calls f.
func (f TargetFunc) SetCameraAspect(w, h int) {
	f(w, h)
}

// Reactor forwards resize notifications from a surface to a target. The
// size is read from the surface on each notification.
type Reactor struct {
	surface surface.Surface
	target  Target
	cancel  func()
	events  int
}

// New creates a detached reactor.
func New(s surface.Surface, target Target) *Reactor {
	return &Reactor{surface: s, target: target}
}

// Attach subscribes to the surface. Attaching twice does nothing.
func (r *Reactor) Attach() {
	if r.cancel != nil {
		return
	}
	r.cancel = r.surface.OnResize(r.handle)
}

// Detach unsubscribes. Detaching twice does nothing.
func (r *Reactor) Detach() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	r.cancel = nil
}

// Attached reports whether the reactor is subscribed.
func (r *Reactor) Attached() bool {
	return r.cancel != nil
}

// Events returns the number of notifications handled.
func (r *Reactor) Events() int {
	return r.events
}

func (r *Reactor) handle() {
	r.events++
	w, h := r.surface.Size()
	r.target.SetCameraAspect(w, h)
}
