package scenegraph

import (
	"sort"

	"github.com/Faultbox/modelview/pkg/math"
)

// Path selects which transform component a channel drives.
type Path uint8

const (
	PathTranslation Path = iota
	PathRotation
	PathScale
)

// Interpolation selects how values between keyframes are computed.
type Interpolation uint8

const (
	InterpolationLinear Interpolation = iota
	InterpolationStep
)

// Channel animates one transform component of one node.
// Times are in seconds, ascending. Rotation channels use Quats, the
// others use Vec3s; both slices are indexed like Times.
type Channel struct {
	Target        *Node
	Path          Path
	Interpolation Interpolation
	Times         []float32
	Vec3s         []math.Vec3
	Quats         []math.Quat
}

// Clip is a named set of channels played together.
type Clip struct {
	Name     string
	Duration float32
	Channels []Channel
}

// NewClip creates a clip whose duration is the last keyframe time of its channels.
func NewClip(name string, channels []Channel) *Clip {
	c := &Clip{Name: name, Channels: channels}
	for _, ch := range channels {
		if n := len(ch.Times); n > 0 && ch.Times[n-1] > c.Duration {
			c.Duration = ch.Times[n-1]
		}
	}
	return c
}

// Apply writes the pose at time t (seconds) into the channel targets.
func (c *Clip) Apply(t float32) {
	for i := range c.Channels {
		c.Channels[i].apply(t)
	}
}

func (ch *Channel) apply(t float32) {
	if ch.Target == nil || len(ch.Times) == 0 {
		return
	}
	prev, next, f := ch.keyframes(t)

	tr := &ch.Target.Transform
	switch ch.Path {
	case PathRotation:
		if len(ch.Quats) <= next {
			return
		}
		tr.Rotation = ch.Quats[prev].Slerp(ch.Quats[next], f)
	case PathTranslation, PathScale:
		if len(ch.Vec3s) <= next {
			return
		}
		v := ch.Vec3s[prev].Lerp(ch.Vec3s[next], f)
		if ch.Path == PathTranslation {
			tr.Translation = v
		} else {
			tr.Scale = v
		}
	}
}

// keyframes returns the surrounding keyframe indices and the blend factor
// between them. Times outside the keyed range clamp to the nearest key.
func (ch *Channel) keyframes(t float32) (prev, next int, f float32) {
	times := ch.Times
	last := len(times) - 1

	if t <= times[0] {
		return 0, 0, 0
	}
	if t >= times[last] {
		return last, last, 0
	}

	// First key strictly after t.
	next = sort.Search(len(times), func(i int) bool { return times[i] > t })
	prev = next - 1

	if ch.Interpolation == InterpolationStep {
		return prev, prev, 0
	}
	span := times[next] - times[prev]
	if span > 0 {
		f = (t - times[prev]) / span
	}
	return prev, next, f
}

// Asset is a parsed model: a scene subtree plus the clips that animate it.
type Asset struct {
	Root  *Node
	Clips []*Clip
}
