// Package animation advances a viewer's clips and auto-rotation once per
// frame tick.
package animation

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/modelview/pkg/math"
	"github.com/Faultbox/modelview/pkg/scenegraph"
)

// Defaults for Options.
const (
	DefaultTimestep   float32 = 1.0 / 60.0
	DefaultRotateStep float32 = 0.01
)

// Options configures a Driver. Zero steps take the defaults.
type Options struct {
	AutoRotate bool
	Timestep   float32 // seconds per tick
	RotateStep float32 // radians of yaw per tick
}

// Driver plays every active clip at once, looping each by its own duration,
// and turns the pivot about +Y when auto-rotation is on. Time advances by a
// fixed step per tick regardless of wall time.
type Driver struct {
	pivot   *scenegraph.Node
	opts    Options
	players []player
	yaw     float32
}

type player struct {
	clip   *scenegraph.Clip
	cursor float32
}

// NewDriver creates a driver that rotates pivot.
func NewDriver(pivot *scenegraph.Node, opts Options) *Driver {
	if opts.Timestep <= 0 {
		opts.Timestep = DefaultTimestep
	}
	if opts.RotateStep == 0 {
		opts.RotateStep = DefaultRotateStep
	}
	return &Driver{pivot: pivot, opts: opts}
}

// SetClips replaces the active clips and rewinds them. The first pose is
// applied immediately.
func (d *Driver) SetClips(clips []*scenegraph.Clip) {
	d.players = d.players[:0]
	for _, c := range clips {
		if c == nil {
			continue
		}
		d.players = append(d.players, player{clip: c})
		c.Apply(0)
	}
}

// Clips returns the number of active clips.
func (d *Driver) Clips() int {
	return len(d.players)
}

// Cursor returns the playback time of clip i.
func (d *Driver) Cursor(i int) float32 {
	return d.players[i].cursor
}

// Yaw returns the accumulated auto-rotation in radians.
func (d *Driver) Yaw() float32 {
	return d.yaw
}

// Tick advances one frame.
func (d *Driver) Tick() {
	for i := range d.players {
		p := &d.players[i]
		p.cursor = wrap(p.cursor+d.opts.Timestep, p.clip.Duration)
		p.clip.Apply(p.cursor)
	}

	if d.opts.AutoRotate && d.pivot != nil {
		d.yaw += d.opts.RotateStep
		step := math.QuatFromYaw(d.opts.RotateStep)
		d.pivot.Transform.Rotation = step.Mul(d.pivot.Transform.Rotation).Normalize()
	}
}

// ResetRotation clears the accumulated yaw, used when a new model is attached.
func (d *Driver) ResetRotation() {
	d.yaw = 0
	if d.pivot != nil {
		d.pivot.Transform.Rotation = math.QuatIdentity()
	}
}

func wrap(t, duration float32) float32 {
	if duration <= 0 {
		return 0
	}
	t = math32.Mod(t, duration)
	if t < 0 {
		t += duration
	}
	return t
}
