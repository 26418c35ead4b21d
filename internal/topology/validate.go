package topology

import (
	"errors"
	"fmt"
)

// ErrInconsistent is returned by Validate when the graph bookkeeping is broken.
var ErrInconsistent = errors.New("inconsistent graph")

// Validate checks the structural invariants of the graph: link groups are
// symmetric and contain their owner, neighbour lists are symmetric, and every
// staged triangle partitions its corners into anchored and floating ones.
func (g *Graph) Validate() error {
	for i := range g.verts {
		v := &g.verts[i]
		if v.released {
			continue
		}
		if len(v.Group) == 0 || !containsVertex(v.Group, v.ID) {
			return fmt.Errorf("%w: vertex %d missing from its own group", ErrInconsistent, v.ID)
		}
		if !g.verts[v.Group[0]].Original {
			return fmt.Errorf("%w: vertex %d group does not start with an original", ErrInconsistent, v.ID)
		}
		for _, m := range v.Group {
			if err := g.checkVertex(m); err != nil {
				return fmt.Errorf("%w: vertex %d links released vertex %d", ErrInconsistent, v.ID, m)
			}
			if !containsVertex(g.verts[m].Group, v.ID) {
				return fmt.Errorf("%w: vertex %d not in group of %d", ErrInconsistent, v.ID, m)
			}
		}
		for _, t := range v.Tris {
			if !containsVertex(g.tris[t].Verts[:], v.ID) {
				return fmt.Errorf("%w: vertex %d lists triangle %d which does not use it", ErrInconsistent, v.ID, t)
			}
		}
	}

	for i := range g.tris {
		t := &g.tris[i]
		if len(t.Neighbours) > 3 {
			return fmt.Errorf("%w: triangle %d has %d neighbours", ErrInconsistent, t.ID, len(t.Neighbours))
		}
		for _, n := range t.Neighbours {
			if !g.tris[n].IsNeighbour(t.ID) {
				return fmt.Errorf("%w: neighbour %d of %d is not symmetric", ErrInconsistent, n, t.ID)
			}
		}
		for _, v := range t.Verts {
			if err := g.checkVertex(v); err != nil {
				return fmt.Errorf("%w: triangle %d uses released vertex %d", ErrInconsistent, t.ID, v)
			}
			if !g.verts[v].hasTriangle(t.ID) {
				return fmt.Errorf("%w: vertex %d does not list triangle %d", ErrInconsistent, v, t.ID)
			}
		}
		if t.Staged() && len(t.Anchored)+len(t.Floating) != 3 {
			return fmt.Errorf("%w: triangle %d has %d anchored and %d floating corners",
				ErrInconsistent, t.ID, len(t.Anchored), len(t.Floating))
		}
	}
	return nil
}
