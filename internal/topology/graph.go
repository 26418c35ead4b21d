// Package topology holds the vertex/triangle graph the reveal engine works on.
//
// Vertices and triangles live in arenas owned by a Graph and are addressed by
// stable integer handles. A vertex that must move independently for one
// triangle is split off into a copy (Unshare) and later merged back
// (Reshare); every copy stays registered in the link group of the vertex it
// came from, so the canonical vertex for any copy is always Group[0].
package topology

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshfold/pkg/math"
)

// Graph errors.
var (
	ErrUnknownVertex   = errors.New("unknown vertex")
	ErrUnknownTriangle = errors.New("unknown triangle")
	ErrNotOwner        = errors.New("triangle is not attached to vertex")
	ErrNotLinked       = errors.New("vertex is not in the link group")
	ErrNotCopy         = errors.New("vertex is not a copy")
	ErrAlreadyUnique   = errors.New("triangle already owns unique vertices")
)

// VertexID is a handle into the vertex arena.
type VertexID int

// TriangleID is a handle into the triangle arena.
type TriangleID int

// NoTriangle marks an absent triangle reference.
const NoTriangle TriangleID = -1

// Vertex is one logical mesh corner position.
type Vertex struct {
	ID VertexID

	Position math.Vec3 // current, written to the live buffer
	Initial  math.Vec3 // interpolation start
	Target   math.Vec3 // interpolation end, the settled position
	Default  math.Vec3 // position read from the source mesh

	// BufferIndex is the slot in the live position buffer, -1 if not emitted.
	BufferIndex int

	// Original is false for copies created by Unshare.
	Original bool

	// Tris lists the triangles currently referencing this vertex.
	Tris []TriangleID

	// Group is the link group: the canonical vertex first, then every live copy.
	Group []VertexID

	released bool
}

// Canonical returns the original vertex this vertex was copied from (or itself).
func (v *Vertex) Canonical() VertexID {
	return v.Group[0]
}

// InMesh reports whether the vertex has a slot in the live buffer.
func (v *Vertex) InMesh() bool {
	return v.BufferIndex >= 0
}

func (v *Vertex) hasTriangle(t TriangleID) bool {
	for _, id := range v.Tris {
		if id == t {
			return true
		}
	}
	return false
}

func (v *Vertex) removeTriangle(t TriangleID) bool {
	for i, id := range v.Tris {
		if id == t {
			v.Tris = append(v.Tris[:i], v.Tris[i+1:]...)
			return true
		}
	}
	return false
}

// Graph owns the vertex and triangle arenas of one mesh.
type Graph struct {
	verts     []Vertex
	tris      []Triangle
	originals int
	free      []VertexID
	index     map[math.Vec3]VertexID
}

// Vertex returns the vertex for id. The pointer is invalidated by the next
// Unshare call, so do not hold it across graph mutations.
func (g *Graph) Vertex(id VertexID) *Vertex {
	return &g.verts[id]
}

// Triangle returns the triangle for id.
func (g *Graph) Triangle(id TriangleID) *Triangle {
	return &g.tris[id]
}

// NumTriangles returns the number of triangles.
func (g *Graph) NumTriangles() int {
	return len(g.tris)
}

// NumOriginalVertices returns the number of distinct source positions.
func (g *Graph) NumOriginalVertices() int {
	return g.originals
}

// NumCopies returns the number of live vertex copies.
func (g *Graph) NumCopies() int {
	return len(g.verts) - g.originals - len(g.free)
}

// Lookup returns the original vertex at a source position.
func (g *Graph) Lookup(pos math.Vec3) (VertexID, bool) {
	id, ok := g.index[pos]
	return id, ok
}

// Positions returns the default position of every original vertex.
func (g *Graph) Positions() []math.Vec3 {
	out := make([]math.Vec3, g.originals)
	for i := 0; i < g.originals; i++ {
		out[i] = g.verts[i].Default
	}
	return out
}

// Indices returns the triangle list over original vertex handles.
func (g *Graph) Indices() []uint32 {
	out := make([]uint32, 0, len(g.tris)*3)
	for i := range g.tris {
		for _, v := range g.tris[i].Verts {
			out = append(out, uint32(g.verts[v].Canonical()))
		}
	}
	return out
}

func (g *Graph) checkVertex(id VertexID) error {
	if id < 0 || int(id) >= len(g.verts) || g.verts[id].released {
		return fmt.Errorf("%w: %d", ErrUnknownVertex, id)
	}
	return nil
}

func (g *Graph) checkTriangle(id TriangleID) error {
	if id < 0 || int(id) >= len(g.tris) {
		return fmt.Errorf("%w: %d", ErrUnknownTriangle, id)
	}
	return nil
}

func (g *Graph) alloc() VertexID {
	if n := len(g.free); n > 0 {
		id := g.free[n-1]
		g.free = g.free[:n-1]
		return id
	}
	g.verts = append(g.verts, Vertex{})
	return VertexID(len(g.verts) - 1)
}

// Unshare detaches triangle t from vertex v and gives it a fresh copy of v.
// The copy joins the link group of every member of v's group.
func (g *Graph) Unshare(v VertexID, t TriangleID) (VertexID, error) {
	if err := g.checkVertex(v); err != nil {
		return -1, err
	}
	if err := g.checkTriangle(t); err != nil {
		return -1, err
	}
	if !g.verts[v].hasTriangle(t) {
		return -1, fmt.Errorf("%w: triangle %d, vertex %d", ErrNotOwner, t, v)
	}

	id := g.alloc()
	src := &g.verts[v]
	src.removeTriangle(t)

	g.verts[id] = Vertex{
		ID:          id,
		Position:    src.Position,
		Initial:     src.Initial,
		Target:      src.Target,
		Default:     src.Default,
		BufferIndex: -1,
		Tris:        []TriangleID{t},
	}

	for _, m := range src.Group {
		g.verts[m].Group = append(g.verts[m].Group, id)
	}
	g.verts[id].Group = append([]VertexID(nil), g.verts[v].Group...)

	tri := &g.tris[t]
	for i := range tri.Verts {
		if tri.Verts[i] == v {
			tri.Verts[i] = id
		}
	}
	return id, nil
}

// Reshare merges copy back into v: the copy's triangle is re-attached to v and
// the copy is dropped from every link group and released.
func (g *Graph) Reshare(v, copy VertexID) error {
	if err := g.checkVertex(v); err != nil {
		return err
	}
	if err := g.checkVertex(copy); err != nil {
		return err
	}
	cp := &g.verts[copy]
	if cp.Original {
		return fmt.Errorf("%w: %d", ErrNotCopy, copy)
	}
	if !containsVertex(g.verts[v].Group, copy) {
		return fmt.Errorf("%w: %d not linked to %d", ErrNotLinked, copy, v)
	}

	for _, t := range cp.Tris {
		g.verts[v].Tris = append(g.verts[v].Tris, t)
		tri := &g.tris[t]
		for i := range tri.Verts {
			if tri.Verts[i] == copy {
				tri.Verts[i] = v
			}
		}
	}
	for _, m := range cp.Group {
		if m == copy {
			continue
		}
		g.verts[m].Group = removeVertex(g.verts[m].Group, copy)
	}

	*cp = Vertex{ID: copy, BufferIndex: -1, released: true}
	g.free = append(g.free, copy)
	return nil
}

// CreateUniqueVerts gives triangle t a private copy of each of its corners.
func (g *Graph) CreateUniqueVerts(t TriangleID) error {
	if err := g.checkTriangle(t); err != nil {
		return err
	}
	if g.tris[t].HasUniqueVerts {
		return fmt.Errorf("%w: %d", ErrAlreadyUnique, t)
	}
	for i := 0; i < 3; i++ {
		if _, err := g.Unshare(g.tris[t].Verts[i], t); err != nil {
			return err
		}
	}
	g.tris[t].HasUniqueVerts = true
	return nil
}

// RemoveUniqueVerts merges the private corners of triangle t back into their
// canonical vertices. It is a no-op for triangles without unique corners.
func (g *Graph) RemoveUniqueVerts(t TriangleID) error {
	if err := g.checkTriangle(t); err != nil {
		return err
	}
	if !g.tris[t].HasUniqueVerts {
		return nil
	}
	for i := 0; i < 3; i++ {
		u := g.tris[t].Verts[i]
		if err := g.Reshare(g.verts[u].Canonical(), u); err != nil {
			return err
		}
	}
	g.tris[t].HasUniqueVerts = false
	return nil
}

// SharedCorners returns the corners of a whose position also appears in b.
// Positions are compared through the link group, so copies match their
// canonical vertex.
func (g *Graph) SharedCorners(a, b TriangleID) []int {
	ta, tb := &g.tris[a], &g.tris[b]
	var out []int
	for i, va := range ta.Verts {
		ca := g.verts[va].Canonical()
		for _, vb := range tb.Verts {
			if g.verts[vb].Canonical() == ca {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

// Reset returns the graph to the state Build produced: every copy is dropped,
// every triangle points at canonical vertices again and all stage and buffer
// bookkeeping is cleared. It never fails, so it doubles as the cleanup path
// after an interrupted run.
func (g *Graph) Reset() {
	for i := range g.tris {
		t := &g.tris[i]
		for c := range t.Verts {
			t.Verts[c] = g.verts[t.Verts[c]].Canonical()
		}
		t.reset()
	}

	g.verts = g.verts[:g.originals]
	g.free = g.free[:0]
	for i := range g.verts {
		v := &g.verts[i]
		v.Position = v.Default
		v.Initial = v.Default
		v.Target = v.Default
		v.BufferIndex = -1
		v.Tris = v.Tris[:0]
		v.Group = append(v.Group[:0], v.ID)
	}
	for i := range g.tris {
		for _, v := range g.tris[i].Verts {
			g.verts[v].Tris = append(g.verts[v].Tris, TriangleID(i))
		}
	}
}

func containsVertex(list []VertexID, id VertexID) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

func removeVertex(list []VertexID, id VertexID) []VertexID {
	for i, v := range list {
		if v == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
