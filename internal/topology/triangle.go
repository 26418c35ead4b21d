package topology

import "github.com/Faultbox/meshfold/pkg/math"

// Triangle is one mesh face together with its reveal bookkeeping.
type Triangle struct {
	ID TriangleID

	// Verts holds the corners in winding order.
	Verts [3]VertexID

	// Neighbours are the triangles sharing an edge (at most 3).
	Neighbours []TriangleID

	// Stage is the reveal stage, -1 when unassigned.
	Stage int

	// Source is the neighbour this triangle was discovered from.
	Source TriangleID

	// Anchored and Floating partition the corner indices (0..2) once a stage
	// is assigned. Corners are stored by index so they survive unsharing.
	Anchored []int
	Floating []int

	// FloatFrom is where the floating corners start their motion.
	FloatFrom math.Vec3

	// HasUniqueVerts is set while every corner is a private copy.
	HasUniqueVerts bool

	// BufferOffset is the first slot of this triangle in the live index buffer.
	BufferOffset int

	// InMesh is set once the triangle has been emitted to the live buffers.
	InMesh bool

	Normal math.Vec3
	Center math.Vec3
}

// IsNeighbour reports whether other shares an edge with t.
func (t *Triangle) IsNeighbour(other TriangleID) bool {
	for _, n := range t.Neighbours {
		if n == other {
			return true
		}
	}
	return false
}

// Staged reports whether a stage has been assigned.
func (t *Triangle) Staged() bool {
	return t.Stage >= 0
}

func (t *Triangle) reset() {
	t.Stage = -1
	t.Source = NoTriangle
	t.Anchored = nil
	t.Floating = nil
	t.FloatFrom = math.Vec3{}
	t.HasUniqueVerts = false
	t.BufferOffset = -1
	t.InMesh = false
}
