package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshfold/pkg/math"
	"github.com/Faultbox/meshfold/pkg/meshio"
)

func TestSmoothNormals_Flat(t *testing.T) {
	quad := meshio.Quad()
	normals := SmoothNormals(nil, quad.Positions, quad.Indices)

	require.Len(t, normals, len(quad.Positions))
	want := math.TriangleNormal(quad.Positions[0], quad.Positions[1], quad.Positions[2])
	for i, n := range normals {
		assert.InDelta(t, 0, n.Distance(want), 1e-5, "vertex %d", i)
	}
}

func TestSmoothNormals_SphereFacesOutward(t *testing.T) {
	sphere := meshio.Icosphere(1)
	normals := SmoothNormals(nil, sphere.Positions, sphere.Indices)

	for i, p := range sphere.Positions {
		assert.InDelta(t, 1, normals[i].Length(), 1e-4)
		assert.Greater(t, normals[i].Dot(p.Normalize()), float32(0.9), "vertex %d", i)
	}
}

func TestSmoothNormals_UnreferencedAndReuse(t *testing.T) {
	positions := []math.Vec3{{}, {X: 1}, {Y: 1}, {X: 5, Y: 5}}
	indices := []uint32{0, 1, 2}

	dst := make([]math.Vec3, 0, 8)
	dst = append(dst, math.Vec3{X: 9})
	normals := SmoothNormals(dst, positions, indices)

	assert.Len(t, normals, 4)
	assert.Same(t, &dst[:1][0], &normals[0], "capacity reused")
	assert.True(t, normals[3].IsZero())
	assert.InDelta(t, 1, normals[0].Z, 1e-6)
}
