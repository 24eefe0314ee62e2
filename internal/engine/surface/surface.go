// Package surface defines the mount target a viewer draws into and tracks
// which viewer owns each target.
package surface

import (
	"errors"
	"fmt"
	"sync"
)

// Drawable is whatever a renderer presents on a surface.
type Drawable interface {
	// Name identifies the drawable in logs.
	Name() string
}

// Surface is a rectangular drawable area with a changing pixel size.
type Surface interface {
	// Size returns the current size in pixels.
	Size() (w, h int)
	AttachDrawable(d Drawable) error
	DetachDrawable(d Drawable)
	// OnResize registers fn to run after every size change. The returned
	// cancel func unsubscribes and may be called more than once.
	OnResize(fn func()) (cancel func())
}

// ErrSurfaceInUse is matched by the error Claim returns for an owned surface.
var ErrSurfaceInUse = errors.New("surface already owned by another viewer")

// ClaimError reports a rejected claim.
type ClaimError struct {
	Owner string
}

func (e *ClaimError) Error() string {
	return fmt.Sprintf("%v (owner %q)", ErrSurfaceInUse, e.Owner)
}

func (e *ClaimError) Unwrap() error {
	return ErrSurfaceInUse
}

// Registry records exclusive ownership of surfaces.
type Registry struct {
	mu     sync.Mutex
	owners map[Surface]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{owners: make(map[Surface]string)}
}

// Default is the process-wide registry.
var Default = NewRegistry()

// Claim marks s as owned by owner. Claiming an owned surface fails with an
// error matching ErrSurfaceInUse.
func (r *Registry) Claim(s Surface, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.owners[s]; ok {
		return &ClaimError{Owner: current}
	}
	r.owners[s] = owner
	return nil
}

// Release frees s. Releasing an unclaimed surface does nothing.
func (r *Registry) Release(s Surface) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.owners, s)
}

// Owner returns the current owner of s.
func (r *Registry) Owner(s Surface) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owners[s]
	return owner, ok
}
