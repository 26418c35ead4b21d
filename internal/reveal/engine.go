// Package reveal animates a triangle mesh growing outward from a seed
// triangle, one stage at a time.
package reveal

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/Faultbox/meshfold/internal/copylayer"
	"github.com/Faultbox/meshfold/internal/stage"
	"github.com/Faultbox/meshfold/internal/topology"
	"github.com/Faultbox/meshfold/pkg/math"
	"github.com/Faultbox/meshfold/pkg/meshio"
)

// Engine errors.
var (
	ErrNilSurface     = errors.New("surface is nil")
	ErrNotInitialized = errors.New("engine has no mesh")
	ErrSeedOutOfRange = errors.New("seed triangle out of range")
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithRand sets the source used by RestartRandom.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// Engine owns a mesh graph and runs reveals on it.
type Engine struct {
	cfg     Config
	surface Surface
	log     *zap.Logger
	rng     *rand.Rand

	graph  *topology.Graph
	layers *copylayer.Manager
	plan   *stage.Plan
	anim   *Animator
	seed   int
	result meshio.Mesh
}

// New creates an engine drawing on surface.
func New(cfg Config, surface Surface, opts ...Option) (*Engine, error) {
	if surface == nil {
		return nil, ErrNilSurface
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		surface: surface,
		log:     zap.NewNop(),
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		layers:  copylayer.NewManager(),
		seed:    -1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Initialize builds the graph for a mesh. Any running reveal is finalized
// first. On error the engine keeps its previous mesh.
func (e *Engine) Initialize(positions []math.Vec3, indices []uint32) error {
	g, err := topology.Build(positions, indices)
	if err != nil {
		return fmt.Errorf("building mesh graph: %w", err)
	}

	e.Finalize()
	e.graph = g
	e.plan = nil
	e.seed = -1
	e.result = meshio.Mesh{}
	e.layers.Reset()

	if e.cfg.ClearOnStart {
		e.surface.Clear()
	} else {
		e.surface.SetMesh(g.Positions(), g.Indices())
		e.surface.RecalculateNormals()
	}

	e.log.Info("mesh initialized",
		zap.Int("vertices", g.NumOriginalVertices()),
		zap.Int("triangles", g.NumTriangles()))
	return nil
}

// Restart starts a new reveal from seed. A reveal already in progress is
// finalized first. A plan with a single stage is revealed immediately.
func (e *Engine) Restart(seed int) error {
	if e.graph == nil {
		return ErrNotInitialized
	}
	if seed < 0 || seed >= e.graph.NumTriangles() {
		return fmt.Errorf("%w: %d of %d", ErrSeedOutOfRange, seed, e.graph.NumTriangles())
	}

	e.Finalize()
	e.surface.Clear()

	p, err := stage.Compute(e.graph, topology.TriangleID(seed))
	if err != nil {
		e.graph.Reset()
		return fmt.Errorf("planning reveal: %w", err)
	}

	e.plan = p
	e.seed = seed
	e.result = meshio.Mesh{}
	e.anim = newAnimator(e.graph, p, e.cfg, e.surface, e.layers, e.log)

	e.log.Info("reveal started",
		zap.Int("seed", seed),
		zap.Int("stages", p.Len()),
		zap.Int("triangles", p.TriangleCount()),
		zap.Int("demoted", p.Demoted),
		zap.Int("max_stage_tris", p.MaxStageTris))

	if p.Len() == 1 {
		if _, err := e.Tick(0); err != nil {
			return err
		}
	}
	return nil
}

// RestartRandom restarts from a random triangle and returns the seed.
func (e *Engine) RestartRandom() (int, error) {
	if e.graph == nil {
		return -1, ErrNotInitialized
	}
	seed := e.rng.IntN(e.graph.NumTriangles())
	return seed, e.Restart(seed)
}

// Tick advances the running reveal by dt seconds. On error the run is
// finalized so the graph is left consistent.
func (e *Engine) Tick(dt float32) (Step, error) {
	if e.anim == nil {
		return StepIdle, nil
	}

	step, err := e.anim.Tick(dt)
	if err != nil {
		e.log.Error("reveal failed", zap.Int("stage", e.anim.StageIndex()), zap.Error(err))
		e.Finalize()
		return StepIdle, err
	}
	if step == StepFinished {
		e.result = e.anim.Result()
		e.anim = nil
		e.log.Info("reveal finished",
			zap.Int("seed", e.seed),
			zap.Int("vertices", len(e.result.Positions)),
			zap.Int("triangles", e.result.NumTriangles()))
	}
	return step, nil
}

// Finalize ends the running reveal at once, leaving every revealed triangle
// at its target. It is a no-op when nothing is running.
func (e *Engine) Finalize() {
	if e.anim == nil {
		return
	}
	if e.anim.Running() {
		e.log.Info("finalizing reveal early",
			zap.Int("stage", e.anim.StageIndex()),
			zap.Int("stages", e.plan.Len()))
		e.anim.Abort()
	}
	e.result = e.anim.Result()
	e.anim = nil
}

// Clear finalizes any running reveal and empties the surface.
func (e *Engine) Clear() {
	e.Finalize()
	e.surface.Clear()
}

// SetFoldSpeed changes the speed multiplier. It applies from the next stage.
func (e *Engine) SetFoldSpeed(speed float32) error {
	cfg := e.cfg
	cfg.FoldSpeed = speed
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.cfg = cfg
	if e.anim != nil {
		e.anim.cfg = cfg
	}
	return nil
}

// Config returns the current settings.
func (e *Engine) Config() Config {
	return e.cfg
}

// Running reports whether a reveal is in progress.
func (e *Engine) Running() bool {
	return e.anim != nil && e.anim.Running()
}

// State returns the animator phase, StateIdle when nothing runs.
func (e *Engine) State() State {
	if e.anim == nil {
		return StateIdle
	}
	return e.anim.State()
}

// StageIndex returns the stage being revealed, -1 when idle.
func (e *Engine) StageIndex() int {
	if e.anim == nil {
		return -1
	}
	return e.anim.StageIndex()
}

// Seed returns the seed of the latest reveal, -1 if none.
func (e *Engine) Seed() int {
	return e.seed
}

// Plan returns the plan of the latest reveal.
func (e *Engine) Plan() *stage.Plan {
	return e.plan
}

// Graph returns the mesh graph.
func (e *Engine) Graph() *topology.Graph {
	return e.graph
}

// Result returns the mesh left by the latest finished or finalized reveal.
func (e *Engine) Result() meshio.Mesh {
	return e.result
}
