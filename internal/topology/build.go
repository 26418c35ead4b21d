package topology

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/chewxy/math32"

	"github.com/Faultbox/meshfold/pkg/math"
)

// Build errors.
var (
	ErrEmptyMesh          = errors.New("mesh has no vertices or triangles")
	ErrIndexCount         = errors.New("index count is not a multiple of 3")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrInvalidPosition    = errors.New("vertex position is not finite")
	ErrDegenerateTriangle = errors.New("degenerate triangle")
	ErrNonManifold        = errors.New("non-manifold mesh")
)

// Build constructs the graph for a triangle list. Vertices at identical
// positions are merged, so a mesh with split normals still yields a connected
// graph.
func Build(positions []math.Vec3, indices []uint32) (*Graph, error) {
	if len(positions) == 0 || len(indices) == 0 {
		return nil, ErrEmptyMesh
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d indices", ErrIndexCount, len(indices))
	}

	g := &Graph{
		verts: make([]Vertex, 0, len(positions)),
		tris:  make([]Triangle, 0, len(indices)/3),
		index: make(map[math.Vec3]VertexID, len(positions)),
	}

	remap := make([]VertexID, len(positions))
	for i, p := range positions {
		if !finite(p) {
			return nil, fmt.Errorf("%w: vertex %d %v", ErrInvalidPosition, i, p)
		}
		if id, ok := g.index[p]; ok {
			remap[i] = id
			continue
		}
		id := VertexID(len(g.verts))
		g.verts = append(g.verts, Vertex{
			ID:          id,
			Position:    p,
			Initial:     p,
			Target:      p,
			Default:     p,
			BufferIndex: -1,
			Original:    true,
			Group:       []VertexID{id},
		})
		g.index[p] = id
		remap[i] = id
	}
	g.originals = len(g.verts)

	for i := 0; i < len(indices); i += 3 {
		tid := TriangleID(i / 3)
		var ids [3]VertexID
		for c := 0; c < 3; c++ {
			idx := indices[i+c]
			if int(idx) >= len(positions) {
				return nil, fmt.Errorf("%w: triangle %d uses index %d of %d", ErrIndexOutOfRange, tid, idx, len(positions))
			}
			ids[c] = remap[idx]
		}
		if ids[0] == ids[1] || ids[1] == ids[2] || ids[0] == ids[2] {
			return nil, fmt.Errorf("%w: triangle %d repeats a vertex", ErrDegenerateTriangle, tid)
		}

		a, b, c := g.verts[ids[0]].Default, g.verts[ids[1]].Default, g.verts[ids[2]].Default
		n := math.TriangleNormal(a, b, c)
		if n.IsZero() {
			return nil, fmt.Errorf("%w: triangle %d has zero area", ErrDegenerateTriangle, tid)
		}

		g.tris = append(g.tris, Triangle{
			ID:           tid,
			Verts:        ids,
			Neighbours:   make([]TriangleID, 0, 3),
			Stage:        -1,
			Source:       NoTriangle,
			BufferOffset: -1,
			Normal:       n,
			Center:       a.Add(b).Add(c).Scale(1.0 / 3.0),
		})
		for _, v := range ids {
			g.verts[v].Tris = append(g.verts[v].Tris, tid)
		}
	}

	for i := range g.tris {
		if err := g.linkNeighbours(TriangleID(i)); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// linkNeighbours fills the neighbour list of t from the triangles touching its
// corners. A candidate sharing two corners is an edge neighbour; each edge may
// be claimed by only one.
func (g *Graph) linkNeighbours(t TriangleID) error {
	tri := &g.tris[t]

	var candidates []TriangleID
	for _, v := range tri.Verts {
		for _, c := range g.verts[v].Tris {
			if c != t && !containsTriangle(candidates, c) {
				candidates = append(candidates, c)
			}
		}
	}

	// edges[i] is the edge opposite corner i.
	var edges [3]TriangleID
	for i := range edges {
		edges[i] = NoTriangle
	}
	for _, c := range candidates {
		mask := g.sharedMask(t, c)
		switch bits.OnesCount8(mask) {
		case 3:
			return fmt.Errorf("%w: triangles %d and %d are duplicates", ErrNonManifold, t, c)
		case 2:
			opposite := bits.TrailingZeros8(^mask & 0b111)
			if edges[opposite] != NoTriangle {
				return fmt.Errorf("%w: edge of triangle %d shared with %d and %d", ErrNonManifold, t, edges[opposite], c)
			}
			edges[opposite] = c
			tri.Neighbours = append(tri.Neighbours, c)
		}
	}
	return nil
}

func (g *Graph) sharedMask(a, b TriangleID) uint8 {
	var mask uint8
	for _, c := range g.SharedCorners(a, b) {
		mask |= 1 << c
	}
	return mask
}

func containsTriangle(list []TriangleID, id TriangleID) bool {
	for _, t := range list {
		if t == id {
			return true
		}
	}
	return false
}

func finite(v math.Vec3) bool {
	for _, f := range v.Array() {
		if math32.IsNaN(f) || math32.IsInf(f, 0) {
			return false
		}
	}
	return true
}
