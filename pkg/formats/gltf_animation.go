package formats

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/modelview/pkg/math"
	"github.com/Faultbox/modelview/pkg/scenegraph"
)

// buildClips converts every animation. Channels targeting nodes outside the
// converted scene, or morph weights, are skipped.
func (b *gltfBuilder) buildClips() ([]*scenegraph.Clip, error) {
	clips := make([]*scenegraph.Clip, 0, len(b.doc.Animations))
	for i, anim := range b.doc.Animations {
		var channels []scenegraph.Channel
		for j, ch := range anim.Channels {
			c, ok, err := b.buildChannel(anim, ch)
			if err != nil {
				return nil, fmt.Errorf("animation %d channel %d: %w", i, j, err)
			}
			if ok {
				channels = append(channels, c)
			}
		}

		name := anim.Name
		if name == "" {
			name = fmt.Sprintf("animation_%d", i)
		}
		clips = append(clips, scenegraph.NewClip(name, channels))
	}
	return clips, nil
}

func (b *gltfBuilder) buildChannel(anim *gltf.Animation, ch *gltf.Channel) (scenegraph.Channel, bool, error) {
	var out scenegraph.Channel

	if ch.Target.Node == nil || int(*ch.Target.Node) >= len(b.nodes) || b.nodes[*ch.Target.Node] == nil {
		return out, false, nil
	}
	switch ch.Target.Path {
	case gltf.TRSTranslation:
		out.Path = scenegraph.PathTranslation
	case gltf.TRSRotation:
		out.Path = scenegraph.PathRotation
	case gltf.TRSScale:
		out.Path = scenegraph.PathScale
	default:
		return out, false, nil
	}
	out.Target = b.nodes[*ch.Target.Node]

	if ch.Sampler == nil || int(*ch.Sampler) >= len(anim.Samplers) {
		return out, false, fmt.Errorf("missing sampler")
	}
	sampler := anim.Samplers[*ch.Sampler]
	if sampler.Input == nil || sampler.Output == nil {
		return out, false, fmt.Errorf("sampler without input or output")
	}

	times, err := b.readFloats(*sampler.Input)
	if err != nil {
		return out, false, fmt.Errorf("reading key times: %w", err)
	}
	out.Times = times

	// Cubic spline outputs hold in-tangent, value, out-tangent per key; the
	// value is played back linearly.
	stride, offset := 1, 0
	switch sampler.Interpolation {
	case gltf.InterpolationStep:
		out.Interpolation = scenegraph.InterpolationStep
	case gltf.InterpolationCubicSpline:
		stride, offset = 3, 1
	}

	acr, err := b.accessor(*sampler.Output)
	if err != nil {
		return out, false, err
	}
	raw, err := modeler.ReadAccessor(b.doc, acr, nil)
	if err != nil {
		return out, false, fmt.Errorf("reading key values: %w", err)
	}

	if out.Path == scenegraph.PathRotation {
		quats, ok := raw.([][4]float32)
		if !ok {
			return out, false, fmt.Errorf("unsupported rotation output %T", raw)
		}
		for i := offset; i < len(quats); i += stride {
			q := quats[i]
			out.Quats = append(out.Quats, math.Quat{X: q[0], Y: q[1], Z: q[2], W: q[3]}.Normalize())
		}
		if len(out.Quats) != len(times) {
			return out, false, fmt.Errorf("%d rotation keys for %d times", len(out.Quats), len(times))
		}
		return out, true, nil
	}

	vecs, ok := raw.([][3]float32)
	if !ok {
		return out, false, fmt.Errorf("unsupported vector output %T", raw)
	}
	for i := offset; i < len(vecs); i += stride {
		out.Vec3s = append(out.Vec3s, math.Vec3From(vecs[i]))
	}
	if len(out.Vec3s) != len(times) {
		return out, false, fmt.Errorf("%d vector keys for %d times", len(out.Vec3s), len(times))
	}
	return out, true, nil
}

func (b *gltfBuilder) readFloats(idx uint32) ([]float32, error) {
	acr, err := b.accessor(idx)
	if err != nil {
		return nil, err
	}
	raw, err := modeler.ReadAccessor(b.doc, acr, nil)
	if err != nil {
		return nil, err
	}
	f, ok := raw.([]float32)
	if !ok {
		return nil, fmt.Errorf("unsupported key time type %T", raw)
	}
	return f, nil
}
