package scenegraph

// ApplyEmissive sets the emissive term of every mesh material under root to
// color scaled by intensity. Meshes without a material get a default one.
func ApplyEmissive(root *Node, color [3]float32, intensity float32) {
	emissive := [3]float32{color[0] * intensity, color[1] * intensity, color[2] * intensity}
	for _, n := range root.Meshes() {
		if n.Mesh.Material == nil {
			n.Mesh.Material = DefaultMaterial()
		}
		n.Mesh.Material.Emissive = emissive
	}
}
