package reveal

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/meshfold/internal/copylayer"
	"github.com/Faultbox/meshfold/internal/stage"
	"github.com/Faultbox/meshfold/internal/topology"
	"github.com/Faultbox/meshfold/pkg/easing"
	"github.com/Faultbox/meshfold/pkg/meshio"
)

// ErrTriangleAlreadyBuffered is returned when a stage tries to emit a
// triangle that is already part of the live mesh.
var ErrTriangleAlreadyBuffered = errors.New("triangle already buffered")

// Pacing constants.
const (
	lengthCrossover = 0.3  // fraction of the run spent accelerating
	densityWeight   = 0.2  // extra speed for the most crowded stage
	minDensity      = 0.15 // density factor of a near-empty stage
)

// State is the animator phase.
type State int

const (
	StateIdle State = iota
	StateStageLoading
	StateStageAnimating
	StateStageSettled
	StateFinalizing
)

// String returns a readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateStageLoading:
		return "StageLoading"
	case StateStageAnimating:
		return "StageAnimating"
	case StateStageSettled:
		return "StageSettled"
	case StateFinalizing:
		return "Finalizing"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Step is what a Tick accomplished.
type Step int

const (
	// StepIdle means no reveal is running.
	StepIdle Step = iota
	// StepContinue means the current stage is still moving.
	StepContinue
	// StepStageComplete means a stage settled and another one follows.
	StepStageComplete
	// StepFinished means the last stage settled and the run was finalized.
	StepFinished
)

// Animator plays one plan on a graph. It is driven by Tick and owns the live
// buffers for the duration of the run.
type Animator struct {
	graph   *topology.Graph
	plan    *stage.Plan
	cfg     Config
	surface Surface
	layers  *copylayer.Manager
	log     *zap.Logger

	buf        buffers
	state      State
	stageIndex int
	timer      float32
	speed      float32
	sizeOffset float32
	layer      *copylayer.Layer
	result     meshio.Mesh
}

func newAnimator(g *topology.Graph, p *stage.Plan, cfg Config, surface Surface, layers *copylayer.Manager, log *zap.Logger) *Animator {
	return &Animator{
		graph:      g,
		plan:       p,
		cfg:        cfg,
		surface:    surface,
		layers:     layers,
		log:        log,
		state:      StateStageLoading,
		sizeOffset: cfg.SizeOffset(g.NumTriangles()),
	}
}

// State returns the current phase.
func (a *Animator) State() State {
	return a.state
}

// StageIndex returns the stage being loaded or animated.
func (a *Animator) StageIndex() int {
	return a.stageIndex
}

// Progress returns the interpolation timer of the current stage in [0, 1].
func (a *Animator) Progress() float32 {
	return a.timer
}

// Running reports whether the run has not finished yet.
func (a *Animator) Running() bool {
	return a.state != StateIdle
}

// Result returns the mesh produced by finalization.
func (a *Animator) Result() meshio.Mesh {
	return a.result
}

// Tick advances the run by dt seconds. Loading a stage and the first
// animation step happen in the same tick; a settled stage is reported with
// StepStageComplete (or StepFinished for the last one).
func (a *Animator) Tick(dt float32) (Step, error) {
	if dt < 0 {
		dt = 0
	}

	switch a.state {
	case StateIdle:
		return StepIdle, nil

	case StateStageLoading:
		if err := a.loadStage(); err != nil {
			return StepIdle, err
		}
		if a.stageIndex == 0 {
			a.snap()
			a.state = StateStageSettled
		} else {
			a.beginAnimation()
			a.state = StateStageAnimating
		}
	}

	if a.state == StateStageAnimating {
		if !a.advance(dt) {
			return StepContinue, nil
		}
		a.state = StateStageSettled
	}

	if err := a.settleStage(); err != nil {
		return StepIdle, err
	}
	a.log.Debug("stage settled", zap.Int("stage", a.stageIndex))

	a.stageIndex++
	if a.stageIndex < a.plan.Len() {
		a.state = StateStageLoading
		return StepStageComplete, nil
	}

	a.finalize()
	return StepFinished, nil
}

// Abort ends the run immediately. A stage in motion is snapped to its
// targets before the result is built.
func (a *Animator) Abort() {
	if a.state == StateIdle {
		return
	}
	// A stage still loading has nothing on screen to settle.
	if a.state != StateStageLoading && a.stageIndex < a.plan.Len() {
		if err := a.settleStage(); err != nil {
			a.log.Warn("settling interrupted stage", zap.Int("stage", a.stageIndex), zap.Error(err))
		}
	}
	a.finalize()
}

func (a *Animator) stageTris() []topology.TriangleID {
	return a.plan.Stages[a.stageIndex]
}

// loadStage emits every triangle of the current stage into the live buffers.
// On failure the buffers are cut back to the previous stage.
func (a *Animator) loadStage() error {
	if a.stageIndex > 0 {
		a.layer = a.layers.Next()
	}
	positions, indices := len(a.buf.positions), len(a.buf.indices)
	for _, id := range a.stageTris() {
		if err := a.loadTriangle(id); err != nil {
			a.buf.positions = a.buf.positions[:positions]
			a.buf.indices = a.buf.indices[:indices]
			return fmt.Errorf("loading stage %d: %w", a.stageIndex, err)
		}
	}
	a.surface.SetMesh(a.buf.positions, a.buf.indices)
	a.surface.RecalculateNormals()
	a.log.Debug("stage loaded",
		zap.Int("stage", a.stageIndex),
		zap.Int("triangles", len(a.stageTris())),
		zap.Int("vertices", len(a.buf.positions)))
	return nil
}

func (a *Animator) loadTriangle(id topology.TriangleID) error {
	g := a.graph
	t := g.Triangle(id)
	if t.InMesh {
		return fmt.Errorf("%w: %d", ErrTriangleAlreadyBuffered, id)
	}

	// A floating corner that is already on screen would drag a visible
	// neighbour along, so the triangle moves on its own copies instead.
	if !t.HasUniqueVerts {
		for _, c := range t.Floating {
			if g.Vertex(t.Verts[c]).InMesh() {
				if err := g.CreateUniqueVerts(id); err != nil {
					return err
				}
				break
			}
		}
	}
	if t.HasUniqueVerts && a.layer != nil {
		a.layer.Add(int(id))
	}

	for _, c := range t.Anchored {
		if v := g.Vertex(t.Verts[c]); !v.InMesh() {
			v.Position, v.Initial = v.Target, v.Target
		}
	}
	for _, c := range t.Floating {
		v := g.Vertex(t.Verts[c])
		v.Initial = t.FloatFrom
		v.Position = t.FloatFrom
	}

	t.BufferOffset = len(a.buf.indices)
	for _, vid := range t.Verts {
		v := g.Vertex(vid)
		if !v.InMesh() {
			v.BufferIndex = len(a.buf.positions)
			a.buf.positions = append(a.buf.positions, v.Position)
		}
		a.buf.indices = append(a.buf.indices, uint32(v.BufferIndex))
	}
	t.InMesh = true
	return nil
}

// snap moves the seed straight to its targets.
func (a *Animator) snap() {
	for _, id := range a.stageTris() {
		for _, vid := range a.graph.Triangle(id).Verts {
			v := a.graph.Vertex(vid)
			v.Position, v.Initial = v.Target, v.Target
			a.buf.positions[v.BufferIndex] = v.Target
		}
	}
	a.surface.UpdatePositions(a.buf.positions)
	a.surface.RecalculateNormals()
}

// beginAnimation derives the stage speed: slow start, a peak around
// lengthCrossover of the run, an eased tail, and a bonus for crowded stages.
func (a *Animator) beginAnimation() {
	count := float32(a.plan.Len())
	ratio := float32(a.stageIndex) / count

	var length float32
	if float32(a.stageIndex) < count*lengthCrossover {
		length = easing.InQuint(1, 2, ratio/lengthCrossover)
	} else {
		length = easing.OutQuint(2, 1.25, (ratio-lengthCrossover)/(1-lengthCrossover))
	}

	density := float32(1)
	if a.plan.MaxStageTris > 0 {
		density = easing.InOutQuint(minDensity, 1, float32(len(a.stageTris()))/float32(a.plan.MaxStageTris))
	}

	a.timer = 0
	a.speed = a.cfg.FoldSpeed * a.sizeOffset * length * (1 + density*densityWeight)
}

// advance moves the floating corners of the current stage and reports
// whether the stage reached its targets.
func (a *Animator) advance(dt float32) bool {
	tick := dt * a.speed
	if 1-a.timer <= tick*2 {
		a.timer = 1
	} else {
		a.timer += tick
	}

	e := easing.OutCubic(0, 1, a.timer)
	for _, id := range a.stageTris() {
		t := a.graph.Triangle(id)
		for _, c := range t.Floating {
			v := a.graph.Vertex(t.Verts[c])
			v.Position = v.Initial.Lerp(v.Target, e)
			a.buf.positions[v.BufferIndex] = v.Position
		}
	}
	a.surface.UpdatePositions(a.buf.positions)
	a.surface.RecalculateNormals()
	return a.timer >= 1
}

// settleStage puts every corner of the stage on its target and merges unique
// copies back into their canonical vertices.
func (a *Animator) settleStage() error {
	g := a.graph
	for _, id := range a.stageTris() {
		t := g.Triangle(id)
		if !t.InMesh {
			continue
		}
		if !t.HasUniqueVerts {
			for _, c := range t.Floating {
				v := g.Vertex(t.Verts[c])
				v.Position, v.Initial = v.Target, v.Target
				a.buf.positions[v.BufferIndex] = v.Target
			}
			continue
		}

		for c := 0; c < 3; c++ {
			u := g.Vertex(t.Verts[c])
			slot := u.BufferIndex
			cv := g.Vertex(u.Canonical())
			if !cv.InMesh() {
				cv.BufferIndex = slot
			}
			cv.Position, cv.Initial = cv.Target, cv.Target
			a.buf.positions[cv.BufferIndex] = cv.Target
			a.buf.indices[t.BufferOffset+c] = uint32(cv.BufferIndex)
		}
		if a.layer != nil {
			a.layer.Remove(int(id))
		}
		if err := g.RemoveUniqueVerts(id); err != nil {
			return fmt.Errorf("settling triangle %d: %w", id, err)
		}
	}
	a.layer = nil

	a.surface.SetMesh(a.buf.positions, a.buf.indices)
	a.surface.RecalculateNormals()
	return nil
}

// finalize hands the compacted mesh to the surface and returns the graph and
// collaborators to their pristine state.
func (a *Animator) finalize() {
	a.state = StateFinalizing

	positions, indices := a.buf.compact()
	a.result = meshio.Mesh{Positions: positions, Indices: indices}
	a.surface.SetMesh(positions, indices)
	a.surface.RecalculateNormals()

	a.graph.Reset()
	a.layers.Reset()
	a.buf.clear()
	a.state = StateIdle

	a.log.Debug("reveal finalized",
		zap.Int("stages", a.plan.Len()),
		zap.Int("vertices", len(positions)),
		zap.Int("triangles", len(indices)/3))
}
