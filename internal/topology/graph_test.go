package topology

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshfold/pkg/math"
	"github.com/Faultbox/meshfold/pkg/meshio"
)

func build(t *testing.T, m meshio.Mesh) *Graph {
	t.Helper()
	g, err := Build(m.Positions, m.Indices)
	require.NoError(t, err)
	return g
}

func TestBuild_Counts(t *testing.T) {
	tests := []struct {
		name      string
		mesh      meshio.Mesh
		wantVerts int
		wantTris  int
	}{
		{"triangle", meshio.Triangle(), 3, 1},
		{"quad", meshio.Quad(), 4, 2},
		{"cube", meshio.Cube(2), 8, 12},
		{"icosphere", meshio.Icosphere(1), 42, 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.mesh)
			assert.Equal(t, tt.wantVerts, g.NumOriginalVertices())
			assert.Equal(t, tt.wantTris, g.NumTriangles())
			assert.Zero(t, g.NumCopies())
			assert.NoError(t, g.Validate())
		})
	}
}

func TestBuild_MergesDuplicatePositions(t *testing.T) {
	// Two triangles stored without shared vertices.
	positions := []math.Vec3{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1},
		{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	}
	g, err := Build(positions, []uint32{0, 1, 2, 3, 4, 5})
	require.NoError(t, err)

	assert.Equal(t, 4, g.NumOriginalVertices())
	assert.Equal(t, []TriangleID{1}, g.Triangle(0).Neighbours)
	assert.Equal(t, []TriangleID{0}, g.Triangle(1).Neighbours)

	id, ok := g.Lookup(math.Vec3{X: 1, Y: 1})
	require.True(t, ok)
	assert.Len(t, g.Vertex(id).Tris, 2)
}

func TestBuild_Adjacency(t *testing.T) {
	t.Run("closed cube has three neighbours everywhere", func(t *testing.T) {
		g := build(t, meshio.Cube(1))
		for i := 0; i < g.NumTriangles(); i++ {
			assert.Len(t, g.Triangle(TriangleID(i)).Neighbours, 3, "triangle %d", i)
		}
	})

	t.Run("neighbours are symmetric", func(t *testing.T) {
		g := build(t, meshio.Icosphere(2))
		for i := 0; i < g.NumTriangles(); i++ {
			tri := g.Triangle(TriangleID(i))
			assert.LessOrEqual(t, len(tri.Neighbours), 3)
			for _, n := range tri.Neighbours {
				assert.True(t, g.Triangle(n).IsNeighbour(tri.ID), "%d -> %d", tri.ID, n)
				assert.Len(t, g.SharedCorners(tri.ID, n), 2)
			}
		}
	})

	t.Run("vertex contact is not adjacency", func(t *testing.T) {
		// Two triangles touching at a single corner.
		positions := []math.Vec3{{}, {X: 1}, {Y: 1}, {X: -1}, {Y: -1}}
		g, err := Build(positions, []uint32{0, 1, 2, 0, 3, 4})
		require.NoError(t, err)
		assert.Empty(t, g.Triangle(0).Neighbours)
		assert.Empty(t, g.Triangle(1).Neighbours)
	})

	t.Run("fan neighbours", func(t *testing.T) {
		g := build(t, meshio.Disc(6, 1))
		assert.ElementsMatch(t, []TriangleID{1, 5}, g.Triangle(0).Neighbours)
		assert.ElementsMatch(t, []TriangleID{2, 4}, g.Triangle(3).Neighbours)
	})
}

func TestBuild_Errors(t *testing.T) {
	square := meshio.Quad().Positions
	fin := []math.Vec3{{}, {X: 1}, {Y: 1}, {Y: -1}, {Z: 1}}

	tests := []struct {
		name      string
		positions []math.Vec3
		indices   []uint32
		wantErr   error
	}{
		{"no positions", nil, []uint32{0, 1, 2}, ErrEmptyMesh},
		{"no indices", square, nil, ErrEmptyMesh},
		{"index count", square, []uint32{0, 1, 2, 3}, ErrIndexCount},
		{"index range", square, []uint32{0, 1, 9}, ErrIndexOutOfRange},
		{"repeated vertex", square, []uint32{0, 1, 1}, ErrDegenerateTriangle},
		{"collinear", []math.Vec3{{}, {X: 1}, {X: 2}}, []uint32{0, 1, 2}, ErrDegenerateTriangle},
		{"duplicate face", square, []uint32{0, 1, 2, 2, 1, 0}, ErrNonManifold},
		{"three faces on one edge", fin, []uint32{0, 1, 2, 0, 1, 3, 0, 1, 4}, ErrNonManifold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Build(tt.positions, tt.indices)
			assert.Nil(t, g)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestUnshareReshare(t *testing.T) {
	g := build(t, meshio.Quad())

	// Vertex 0 is shared by both triangles.
	require.Len(t, g.Vertex(0).Tris, 2)

	cp, err := g.Unshare(0, 1)
	require.NoError(t, err)

	assert.Equal(t, []TriangleID{0}, g.Vertex(0).Tris)
	assert.Equal(t, []TriangleID{1}, g.Vertex(cp).Tris)
	assert.Equal(t, []VertexID{0, cp}, g.Vertex(0).Group)
	assert.Equal(t, []VertexID{0, cp}, g.Vertex(cp).Group)
	assert.Equal(t, VertexID(0), g.Vertex(cp).Canonical())
	assert.Equal(t, g.Vertex(0).Position, g.Vertex(cp).Position)
	assert.False(t, g.Vertex(cp).Original)
	assert.Equal(t, cp, g.Triangle(1).Verts[0])
	assert.Equal(t, 1, g.NumCopies())
	require.NoError(t, g.Validate())

	require.NoError(t, g.Reshare(0, cp))
	assert.ElementsMatch(t, []TriangleID{0, 1}, g.Vertex(0).Tris)
	assert.Equal(t, []VertexID{0}, g.Vertex(0).Group)
	assert.Equal(t, VertexID(0), g.Triangle(1).Verts[0])
	assert.Zero(t, g.NumCopies())
	require.NoError(t, g.Validate())
}

func TestUnshare_GroupMembership(t *testing.T) {
	g := build(t, meshio.Disc(4, 1))

	// The center vertex is used by all four triangles.
	a, err := g.Unshare(0, 1)
	require.NoError(t, err)
	b, err := g.Unshare(0, 2)
	require.NoError(t, err)

	for _, id := range []VertexID{0, a, b} {
		assert.ElementsMatch(t, []VertexID{0, a, b}, g.Vertex(id).Group, "group of %d", id)
	}

	require.NoError(t, g.Reshare(0, a))
	assert.ElementsMatch(t, []VertexID{0, b}, g.Vertex(0).Group)
	assert.ElementsMatch(t, []VertexID{0, b}, g.Vertex(b).Group)
	require.NoError(t, g.Validate())

	// Released slots are reused.
	c, err := g.Unshare(0, 3)
	require.NoError(t, err)
	assert.Equal(t, a, c)
}

func TestUnshare_Errors(t *testing.T) {
	g := build(t, meshio.Disc(4, 1))

	_, err := g.Unshare(99, 0)
	assert.ErrorIs(t, err, ErrUnknownVertex)

	_, err = g.Unshare(0, 99)
	assert.ErrorIs(t, err, ErrUnknownTriangle)

	// Vertex 3 is not a corner of triangle 0.
	_, err = g.Unshare(3, 0)
	assert.ErrorIs(t, err, ErrNotOwner)

	assert.ErrorIs(t, g.Reshare(0, 1), ErrNotCopy)

	cp, err := g.Unshare(1, 0)
	require.NoError(t, err)
	assert.ErrorIs(t, g.Reshare(2, cp), ErrNotLinked)
	require.NoError(t, g.Reshare(1, cp))
	assert.ErrorIs(t, g.Reshare(1, cp), ErrUnknownVertex)
}

func TestUniqueVerts(t *testing.T) {
	g := build(t, meshio.Cube(1))
	before := g.Triangle(4).Verts

	require.NoError(t, g.CreateUniqueVerts(4))
	tri := g.Triangle(4)
	assert.True(t, tri.HasUniqueVerts)
	assert.Equal(t, 3, g.NumCopies())
	for i, v := range tri.Verts {
		assert.NotEqual(t, before[i], v)
		assert.Equal(t, before[i], g.Vertex(v).Canonical())
	}
	require.NoError(t, g.Validate())

	assert.ErrorIs(t, g.CreateUniqueVerts(4), ErrAlreadyUnique)

	require.NoError(t, g.RemoveUniqueVerts(4))
	assert.False(t, g.Triangle(4).HasUniqueVerts)
	assert.Equal(t, before, g.Triangle(4).Verts)
	assert.Zero(t, g.NumCopies())
	require.NoError(t, g.Validate())

	// No-op without unique verts.
	assert.NoError(t, g.RemoveUniqueVerts(4))
}

func TestSharedCorners(t *testing.T) {
	g := build(t, meshio.Quad())
	// Triangle 0 = (0,1,2), triangle 1 = (0,2,3).
	assert.Equal(t, []int{0, 2}, g.SharedCorners(0, 1))
	assert.Equal(t, []int{0, 1}, g.SharedCorners(1, 0))

	// Copies still match their canonical vertex.
	require.NoError(t, g.CreateUniqueVerts(1))
	assert.Equal(t, []int{0, 2}, g.SharedCorners(0, 1))
}

func TestReset(t *testing.T) {
	g := build(t, meshio.Icosphere(1))
	want := g.Indices()

	for _, id := range []TriangleID{0, 5, 17} {
		require.NoError(t, g.CreateUniqueVerts(id))
	}
	_, err := g.Unshare(g.Triangle(30).Verts[1], 30)
	require.NoError(t, err)

	tri := g.Triangle(5)
	tri.Stage = 2
	tri.Anchored = []int{0}
	tri.Floating = []int{1, 2}
	tri.InMesh = true
	v := g.Vertex(g.Triangle(9).Verts[0])
	v.Position = math.Vec3{X: 42}
	v.BufferIndex = 7

	g.Reset()

	assert.Zero(t, g.NumCopies())
	assert.Equal(t, want, g.Indices())
	for i := 0; i < g.NumTriangles(); i++ {
		tri := g.Triangle(TriangleID(i))
		assert.Equal(t, -1, tri.Stage)
		assert.Equal(t, NoTriangle, tri.Source)
		assert.False(t, tri.HasUniqueVerts)
		assert.False(t, tri.InMesh)
		assert.Equal(t, -1, tri.BufferOffset)
		assert.Nil(t, tri.Anchored)
	}
	for i := 0; i < g.NumOriginalVertices(); i++ {
		v := g.Vertex(VertexID(i))
		assert.Equal(t, v.Default, v.Position)
		assert.Equal(t, -1, v.BufferIndex)
		assert.Equal(t, []VertexID{v.ID}, v.Group)
	}
	require.NoError(t, g.Validate())

	// Adjacency is untouched.
	for i := 0; i < g.NumTriangles(); i++ {
		assert.Len(t, g.Triangle(TriangleID(i)).Neighbours, 3)
	}
}
