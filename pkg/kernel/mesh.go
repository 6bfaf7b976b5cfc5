package kernel

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Name     string    `json:"name"`     // scene name of the unit this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Span returns the min and max vertex coordinate along axis.
func (m *Mesh) Span(axis Axis) (lo, hi float32, ok bool) {
	if m.IsEmpty() || !axis.Valid() {
		return 0, 0, false
	}
	lo, hi = m.Vertices[axis], m.Vertices[axis]
	for i := int(axis); i < len(m.Vertices); i += 3 {
		v := m.Vertices[i]
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi, true
}
