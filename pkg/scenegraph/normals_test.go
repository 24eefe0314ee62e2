package scenegraph

import (
	"testing"

	"github.com/Faultbox/modelview/pkg/math"
)

func TestEnsureNormals(t *testing.T) {
	up := math.Vec3{Y: 1}
	back := math.Vec3{Z: 1}

	tests := []struct {
		name string
		mesh Mesh
		want []math.Vec3
	}{
		{
			name: "unindexed triangle",
			mesh: Mesh{Positions: []math.Vec3{{}, {X: 1}, {Y: 1}}},
			want: []math.Vec3{back, back, back},
		},
		{
			name: "indexed quad in xz plane",
			mesh: Mesh{
				Positions: []math.Vec3{{}, {Z: 1}, {X: 1, Z: 1}, {X: 1}},
				Indices:   []uint32{0, 1, 2, 0, 2, 3},
			},
			want: []math.Vec3{up, up, up, up},
		},
		{
			name: "single point",
			mesh: Mesh{Positions: []math.Vec3{{X: 3}}},
			want: []math.Vec3{up},
		},
		{
			name: "out of range index ignored",
			mesh: Mesh{Positions: []math.Vec3{{}, {X: 1}, {Y: 1}}, Indices: []uint32{0, 1, 9}},
			want: []math.Vec3{up, up, up},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.mesh
			m.EnsureNormals()
			if len(m.Normals) != len(tt.want) {
				t.Fatalf("got %d normals, want %d", len(m.Normals), len(tt.want))
			}
			for i, want := range tt.want {
				if !m.Normals[i].ApproxEqual(want, 1e-6) {
					t.Errorf("normal %d = %v, want %v", i, m.Normals[i], want)
				}
			}
		})
	}
}

func TestEnsureNormalsKeepsExisting(t *testing.T) {
	m := Mesh{
		Positions: []math.Vec3{{}, {X: 1}, {Y: 1}},
		Normals:   []math.Vec3{{X: 1}, {X: 1}, {X: 1}},
	}
	m.EnsureNormals()
	if m.Normals[0] != (math.Vec3{X: 1}) {
		t.Errorf("existing normals replaced: %v", m.Normals)
	}
}
