package scenegraph

import "github.com/Faultbox/modelview/pkg/math"

// EnsureNormals fills in smooth vertex normals when the mesh has none, or
// when their count does not match the positions. Face normals are
// area-weighted. Vertices touched by no triangle get +Y.
func (m *Mesh) EnsureNormals() {
	if len(m.Normals) == len(m.Positions) {
		return
	}
	m.Normals = make([]math.Vec3, len(m.Positions))

	face := func(a, b, c uint32) {
		if int(a) >= len(m.Positions) || int(b) >= len(m.Positions) || int(c) >= len(m.Positions) {
			return
		}
		pa, pb, pc := m.Positions[a], m.Positions[b], m.Positions[c]
		n := pb.Sub(pa).Cross(pc.Sub(pa))
		m.Normals[a] = m.Normals[a].Add(n)
		m.Normals[b] = m.Normals[b].Add(n)
		m.Normals[c] = m.Normals[c].Add(n)
	}

	if len(m.Indices) > 0 {
		for i := 0; i+2 < len(m.Indices); i += 3 {
			face(m.Indices[i], m.Indices[i+1], m.Indices[i+2])
		}
	} else {
		for i := 0; i+2 < len(m.Positions); i += 3 {
			face(uint32(i), uint32(i+1), uint32(i+2))
		}
	}

	for i, n := range m.Normals {
		if n = n.Normalize(); n == (math.Vec3{}) {
			n = math.Vec3{Y: 1}
		}
		m.Normals[i] = n
	}
}
