package scene

import (
	"fmt"

	"github.com/Faultbox/modelview/pkg/scenegraph"
)

// Recorder is a Renderer that keeps no GPU state. It records what it is
// asked to do, for headless runs and tests.
type Recorder struct {
	next   MeshHandle
	meshes map[MeshHandle]*scenegraph.Mesh

	Uploads   int
	Releases  int
	Frames    int
	LastFrame *Frame
	Viewports [][2]int
	Destroyed int

	// UploadErrAfter makes UploadMesh fail once this many uploads have
	// succeeded. Negative disables it.
	UploadErrAfter int
	// DrawErr, when set, is returned by Draw.
	DrawErr error
}

// NewRecorder creates a recorder with no injected failures.
func NewRecorder() *Recorder {
	return &Recorder{meshes: make(map[MeshHandle]*scenegraph.Mesh), UploadErrAfter: -1}
}

// Name implements surface.Drawable.
func (r *Recorder) Name() string {
	return "recorder"
}

// UploadMesh records mesh and hands out a fresh handle.
func (r *Recorder) UploadMesh(mesh *scenegraph.Mesh) (MeshHandle, error) {
	if r.UploadErrAfter >= 0 && r.Uploads >= r.UploadErrAfter {
		return 0, fmt.Errorf("upload of %q rejected", mesh.Name)
	}
	r.next++
	r.meshes[r.next] = mesh
	r.Uploads++
	return r.next, nil
}

// ReleaseMesh forgets h.
func (r *Recorder) ReleaseMesh(h MeshHandle) {
	if _, ok := r.meshes[h]; !ok {
		return
	}
	delete(r.meshes, h)
	r.Releases++
}

// Live returns the number of uploaded meshes not yet released.
func (r *Recorder) Live() int {
	return len(r.meshes)
}

// SetViewport records the size.
func (r *Recorder) SetViewport(w, h int) {
	r.Viewports = append(r.Viewports, [2]int{w, h})
}

// Draw records frame. Every draw must reference a live mesh.
func (r *Recorder) Draw(frame *Frame) error {
	if r.DrawErr != nil {
		return r.DrawErr
	}
	for _, d := range frame.Draws {
		if _, ok := r.meshes[d.Mesh]; !ok {
			return fmt.Errorf("draw references released mesh %d", d.Mesh)
		}
	}
	r.Frames++
	r.LastFrame = frame
	return nil
}

// Destroy drops every mesh.
func (r *Recorder) Destroy() {
	r.Destroyed++
	r.meshes = make(map[MeshHandle]*scenegraph.Mesh)
}
