// Package stage orders the triangles of a graph into reveal stages.
//
// Stages grow breadth-first from a seed triangle. A triangle discovered from
// a stage-k triangle normally joins stage k+1, hinged on the edge it shares
// with its source: two corners stay anchored and the third floats in from
// just off that edge. A triangle that already touches a second staged
// triangle, including one placed in stage k+1 earlier in the same pass,
// cannot hinge on a single edge. It is demoted into stage k with private
// corners, one anchor and two floating corners. Demoted triangles are
// expanded in the same pass as the rest of stage k.
package stage

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshfold/internal/topology"
	"github.com/Faultbox/meshfold/pkg/math"
)

// Planner errors.
var (
	ErrSeedOutOfRange = errors.New("seed triangle out of range")
	ErrAlreadyPlanned = errors.New("graph already carries a plan")
)

// FloatLift scales how far off the hinge edge a floating corner starts,
// relative to the edge midpoint's distance from the origin.
const FloatLift = 0.33

// Plan is the ordered list of stages for one reveal.
type Plan struct {
	Seed   topology.TriangleID
	Stages [][]topology.TriangleID

	// MaxStageTris is the largest triangle count of any stage after the seed,
	// counted once planning is done and so including demoted triangles.
	MaxStageTris int

	// Demoted counts triangles placed with a single anchor.
	Demoted int
}

// Len returns the number of stages.
func (p *Plan) Len() int {
	return len(p.Stages)
}

// TriangleCount returns the number of triangles covered by the plan.
func (p *Plan) TriangleCount() int {
	n := 0
	for _, s := range p.Stages {
		n += len(s)
	}
	return n
}

// Compute plans the reveal of g starting at seed. It writes stage, source,
// anchor and floating data onto the graph's triangles and creates unique
// corners for demoted triangles, so the graph must be fresh or Reset.
func Compute(g *topology.Graph, seed topology.TriangleID) (*Plan, error) {
	if seed < 0 || int(seed) >= g.NumTriangles() {
		return nil, fmt.Errorf("%w: %d of %d", ErrSeedOutOfRange, seed, g.NumTriangles())
	}
	for i := 0; i < g.NumTriangles(); i++ {
		if g.Triangle(topology.TriangleID(i)).Staged() {
			return nil, ErrAlreadyPlanned
		}
	}

	s := g.Triangle(seed)
	s.Stage = 0
	s.Anchored = []int{0, 1, 2}
	s.Floating = nil

	p := &Plan{
		Seed:   seed,
		Stages: [][]topology.TriangleID{{seed}},
	}

	for k := 0; ; k++ {
		var next []topology.TriangleID

		// Demoted triangles are appended to the stage being scanned, so the
		// bound is re-read every iteration.
		for i := 0; i < len(p.Stages[k]); i++ {
			src := p.Stages[k][i]
			for _, n := range g.Triangle(src).Neighbours {
				if g.Triangle(n).Staged() {
					continue
				}
				if other := stagedNeighbour(g, n, src); other != topology.NoTriangle {
					if err := demote(g, n, src, other, k); err != nil {
						return nil, fmt.Errorf("demoting triangle %d: %w", n, err)
					}
					p.Stages[k] = append(p.Stages[k], n)
					p.Demoted++
					continue
				}
				hinge(g, n, src, k+1)
				next = append(next, n)
			}
		}

		if len(next) == 0 {
			break
		}
		p.Stages = append(p.Stages, next)
	}

	for _, st := range p.Stages[1:] {
		p.MaxStageTris = max(p.MaxStageTris, len(st))
	}
	return p, nil
}

// stagedNeighbour returns the first neighbour of t other than src that has
// been given a stage, tentative next-stage placements included.
func stagedNeighbour(g *topology.Graph, t, src topology.TriangleID) topology.TriangleID {
	for _, n := range g.Triangle(t).Neighbours {
		if n != src && g.Triangle(n).Staged() {
			return n
		}
	}
	return topology.NoTriangle
}

// hinge places t in stage with the edge shared with src anchored.
func hinge(g *topology.Graph, t, src topology.TriangleID, stage int) {
	shared := g.SharedCorners(t, src)

	tri := g.Triangle(t)
	tri.Stage = stage
	tri.Source = src
	tri.Anchored = shared
	tri.Floating = remaining(shared)
	tri.FloatFrom = floatOrigin(g, t, shared, g.Triangle(src).Stage)
}

// demote places t in stage k with unique corners. The anchor is the corner
// common to the edges shared with src and other, whatever stage other is in.
func demote(g *topology.Graph, t, src, other topology.TriangleID, k int) error {
	if err := g.CreateUniqueVerts(t); err != nil {
		return err
	}

	shared := g.SharedCorners(t, src)
	otherShared := g.SharedCorners(t, other)
	anchor := shared[0]
	for _, c := range shared {
		if containsCorner(otherShared, c) {
			anchor = c
			break
		}
	}

	tri := g.Triangle(t)
	tri.Stage = k
	tri.Source = src
	tri.Anchored = []int{anchor}
	tri.Floating = remaining(tri.Anchored)
	tri.FloatFrom = floatOrigin(g, t, shared, g.Triangle(src).Stage)
	return nil
}

// floatOrigin lifts the midpoint of the shared edge off the surface along the
// triangle normal, alternating sides by the source stage parity.
func floatOrigin(g *topology.Graph, t topology.TriangleID, shared []int, srcStage int) math.Vec3 {
	tri := g.Triangle(t)
	a := g.Vertex(tri.Verts[shared[0]]).Target
	b := g.Vertex(tri.Verts[shared[1]]).Target
	mid := a.Midpoint(b)

	dir := float32(1)
	if srcStage%2 != 0 {
		dir = -1
	}
	return mid.Add(tri.Normal.Scale(mid.Length() * FloatLift * dir))
}

func remaining(corners []int) []int {
	var out []int
	for c := 0; c < 3; c++ {
		if !containsCorner(corners, c) {
			out = append(out, c)
		}
	}
	return out
}

func containsCorner(corners []int, c int) bool {
	for _, x := range corners {
		if x == c {
			return true
		}
	}
	return false
}
