package reveal

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshfold/internal/topology"
	"github.com/Faultbox/meshfold/pkg/math"
	"github.com/Faultbox/meshfold/pkg/meshio"
)

// recordingSurface keeps the last mesh it was given.
type recordingSurface struct {
	positions []math.Vec3
	indices   []uint32

	sets, updates, normals, clears int
}

func (s *recordingSurface) SetMesh(positions []math.Vec3, indices []uint32) {
	s.positions = append(s.positions[:0], positions...)
	s.indices = append(s.indices[:0], indices...)
	s.sets++
}

func (s *recordingSurface) UpdatePositions(positions []math.Vec3) {
	s.positions = append(s.positions[:0], positions...)
	s.updates++
}

func (s *recordingSurface) RecalculateNormals() { s.normals++ }

func (s *recordingSurface) Clear() {
	s.positions = s.positions[:0]
	s.indices = s.indices[:0]
	s.clears++
}

func newEngine(t *testing.T, m meshio.Mesh, opts ...Option) (*Engine, *recordingSurface) {
	t.Helper()
	s := &recordingSurface{}
	e, err := New(DefaultConfig(), s, opts...)
	require.NoError(t, err)
	require.NoError(t, e.Initialize(m.Positions, m.Indices))
	return e, s
}

// runToEnd ticks until the reveal finishes and returns the tick count.
func runToEnd(t *testing.T, e *Engine, dt float32) int {
	t.Helper()
	for i := 1; i <= 100000; i++ {
		step, err := e.Tick(dt)
		require.NoError(t, err)
		if step == StepFinished {
			return i
		}
		require.NotEqual(t, StepIdle, step, "reveal stopped without finishing")
	}
	t.Fatal("reveal did not finish")
	return 0
}

type triangle [3]math.Vec3

func triangles(positions []math.Vec3, indices []uint32) map[triangle]int {
	out := make(map[triangle]int)
	for i := 0; i+2 < len(indices); i += 3 {
		out[triangle{positions[indices[i]], positions[indices[i+1]], positions[indices[i+2]]}]++
	}
	return out
}

func assertPristine(t *testing.T, g *topology.Graph) {
	t.Helper()
	require.NoError(t, g.Validate())
	assert.Zero(t, g.NumCopies())
	for i := 0; i < g.NumOriginalVertices(); i++ {
		v := g.Vertex(topology.VertexID(i))
		assert.Len(t, v.Group, 1)
		assert.Equal(t, v.Default, v.Position)
		assert.False(t, v.InMesh())
	}
	for i := 0; i < g.NumTriangles(); i++ {
		tri := g.Triangle(topology.TriangleID(i))
		assert.Equal(t, -1, tri.Stage)
		assert.False(t, tri.HasUniqueVerts)
		assert.False(t, tri.InMesh)
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New(DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrNilSurface)

	cfg := DefaultConfig()
	cfg.FoldSpeed = 0
	_, err = New(cfg, &recordingSurface{})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.SizeOffsetStep = -1
	_, err = New(cfg, &recordingSurface{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRestart_Validation(t *testing.T) {
	s := &recordingSurface{}
	e, err := New(DefaultConfig(), s)
	require.NoError(t, err)

	assert.ErrorIs(t, e.Restart(0), ErrNotInitialized)
	_, err = e.RestartRandom()
	assert.ErrorIs(t, err, ErrNotInitialized)

	cube := meshio.Cube(1)
	require.NoError(t, e.Initialize(cube.Positions, cube.Indices))
	clears := s.clears

	assert.ErrorIs(t, e.Restart(-1), ErrSeedOutOfRange)
	assert.ErrorIs(t, e.Restart(12), ErrSeedOutOfRange)
	assert.Equal(t, clears, s.clears, "rejected restart must not touch the surface")
	assert.False(t, e.Running())
}

func TestInitialize_KeepsMeshOnError(t *testing.T) {
	e, _ := newEngine(t, meshio.Cube(1))
	g := e.Graph()

	err := e.Initialize([]math.Vec3{{}, {X: 1}}, []uint32{0, 1, 5})
	assert.ErrorIs(t, err, topology.ErrIndexOutOfRange)
	assert.Same(t, g, e.Graph())
}

func TestInitialize_ShowsMeshWhenNotClearing(t *testing.T) {
	s := &recordingSurface{}
	cfg := DefaultConfig()
	cfg.ClearOnStart = false
	e, err := New(cfg, s)
	require.NoError(t, err)

	cube := meshio.Cube(1)
	require.NoError(t, e.Initialize(cube.Positions, cube.Indices))
	assert.Len(t, s.positions, 8)
	assert.Len(t, s.indices, 36)
	assert.Equal(t, 0, s.clears)
}

func TestTick_Idle(t *testing.T) {
	e, _ := newEngine(t, meshio.Quad())
	step, err := e.Tick(1)
	require.NoError(t, err)
	assert.Equal(t, StepIdle, step)
	assert.Equal(t, StateIdle, e.State())
	assert.Equal(t, -1, e.StageIndex())
}

func TestReveal_Cube(t *testing.T) {
	cube := meshio.Cube(2)
	e, s := newEngine(t, cube)

	require.NoError(t, e.Restart(0))
	assert.True(t, e.Running())
	runToEnd(t, e, 1.0/60)
	assert.False(t, e.Running())

	res := e.Result()
	assert.Len(t, res.Positions, 8)
	assert.Len(t, res.Indices, 36)
	assert.Equal(t, triangles(cube.Positions, cube.Indices), triangles(res.Positions, res.Indices))

	// The surface ends up holding the result.
	assert.Equal(t, res.Positions, s.positions)
	assert.Equal(t, res.Indices, s.indices)

	assertPristine(t, e.Graph())
}

func TestReveal_Icosphere(t *testing.T) {
	sphere := meshio.Icosphere(2)
	e, _ := newEngine(t, sphere)

	for _, seed := range []int{0, 97, 319} {
		require.NoError(t, e.Restart(seed))
		runToEnd(t, e, 1.0/30)

		res := e.Result()
		assert.Len(t, res.Positions, len(sphere.Positions))
		assert.Equal(t, triangles(sphere.Positions, sphere.Indices), triangles(res.Positions, res.Indices), "seed %d", seed)
		assertPristine(t, e.Graph())
	}
}

func TestReveal_IsolatedTriangle(t *testing.T) {
	tri := meshio.Triangle()
	e, s := newEngine(t, tri)

	require.NoError(t, e.Restart(0))
	assert.False(t, e.Running(), "single stage reveals complete inside Restart")

	res := e.Result()
	assert.Equal(t, tri.Positions, res.Positions)
	assert.Equal(t, []uint32{0, 1, 2}, res.Indices)
	assert.Equal(t, res.Positions, s.positions)
	assertPristine(t, e.Graph())
}

func TestReveal_Steps(t *testing.T) {
	e, s := newEngine(t, meshio.Disc(6, 1))
	require.NoError(t, e.Restart(0))

	// Stage 0 snaps into place.
	step, err := e.Tick(0)
	require.NoError(t, err)
	assert.Equal(t, StepStageComplete, step)
	assert.Len(t, s.indices, 3)

	// Stage 1 loads; a zero tick leaves the floating corners at their start.
	step, err = e.Tick(0)
	require.NoError(t, err)
	assert.Equal(t, StepContinue, step)
	assert.Equal(t, StateStageAnimating, e.State())
	assert.Equal(t, 1, e.StageIndex())
	assert.Len(t, s.indices, 9)

	g := e.Graph()
	for _, id := range []topology.TriangleID{1, 5} {
		tri := g.Triangle(id)
		require.Len(t, tri.Floating, 1)
		v := g.Vertex(tri.Verts[tri.Floating[0]])
		assert.Equal(t, tri.FloatFrom, v.Position)
		assert.Equal(t, tri.FloatFrom, s.positions[v.BufferIndex])
	}

	// A long tick finishes the stage.
	step, err = e.Tick(100)
	require.NoError(t, err)
	assert.Equal(t, StepStageComplete, step)

	// Stage 2 holds the demoted triangle, which moves on its own copies.
	step, err = e.Tick(0)
	require.NoError(t, err)
	assert.Equal(t, StepContinue, step)
	assert.True(t, g.Triangle(3).HasUniqueVerts)
	require.NotNil(t, e.layers.Current())
	assert.True(t, e.layers.Current().Contains(3))

	step, err = e.Tick(100)
	require.NoError(t, err)
	assert.Equal(t, StepFinished, step)
	assert.Zero(t, e.layers.Len())

	res := e.Result()
	assert.Len(t, res.Positions, 7)
	assert.Len(t, res.Indices, 18)
}

func TestReveal_ProgressIsMonotonic(t *testing.T) {
	e, _ := newEngine(t, meshio.Grid(4, 4, 2))
	require.NoError(t, e.Restart(0))

	_, err := e.Tick(0) // seed
	require.NoError(t, err)

	last := float32(-1)
	for {
		step, err := e.Tick(0.01)
		require.NoError(t, err)
		if step != StepContinue {
			break
		}
		p := e.anim.Progress()
		assert.Greater(t, p, last)
		assert.LessOrEqual(t, p, float32(1))
		last = p
	}
}

func TestFinalize_MidRun(t *testing.T) {
	sphere := meshio.Icosphere(1)
	e, s := newEngine(t, sphere)
	require.NoError(t, e.Restart(3))

	for i := 0; i < 6; i++ {
		_, err := e.Tick(0.02)
		require.NoError(t, err)
	}
	require.True(t, e.Running())

	e.Finalize()
	assert.False(t, e.Running())
	assertPristine(t, e.Graph())

	res := e.Result()
	require.NotEmpty(t, res.Indices)
	assert.Less(t, res.NumTriangles(), sphere.NumTriangles())
	want := triangles(sphere.Positions, sphere.Indices)
	for tri := range triangles(res.Positions, res.Indices) {
		assert.Contains(t, want, tri, "finalized triangles sit on their targets")
	}
	assert.Equal(t, res.Positions, s.positions)

	// Idempotent.
	e.Finalize()
	assert.Equal(t, res, e.Result())

	step, err := e.Tick(1)
	require.NoError(t, err)
	assert.Equal(t, StepIdle, step)
}

func TestRestart_MidRun(t *testing.T) {
	e, s := newEngine(t, meshio.Icosphere(1))
	require.NoError(t, e.Restart(0))
	for i := 0; i < 4; i++ {
		_, err := e.Tick(0.05)
		require.NoError(t, err)
	}

	clears := s.clears
	require.NoError(t, e.Restart(40))
	assert.Equal(t, clears+1, s.clears)
	assert.Equal(t, 40, e.Seed())
	assert.Equal(t, topology.TriangleID(40), e.Plan().Seed)

	runToEnd(t, e, 0.05)
	assert.Len(t, e.Result().Indices, 80*3)
	assertPristine(t, e.Graph())
}

func TestRestart_Idempotent(t *testing.T) {
	e, _ := newEngine(t, meshio.Icosphere(1))

	require.NoError(t, e.Restart(12))
	firstStages := e.Plan().Stages
	firstTicks := runToEnd(t, e, 1.0/60)
	first := e.Result().Clone()

	require.NoError(t, e.Restart(12))
	assert.Equal(t, firstStages, e.Plan().Stages)
	assert.Equal(t, firstTicks, runToEnd(t, e, 1.0/60))
	assert.Equal(t, first, e.Result())
}

func TestRestart_SameSeedMidRun(t *testing.T) {
	clean, _ := newEngine(t, meshio.Icosphere(1))
	require.NoError(t, clean.Restart(12))
	runToEnd(t, clean, 1.0/60)

	e, _ := newEngine(t, meshio.Icosphere(1))
	require.NoError(t, e.Restart(12))
	for i := 0; i < 5; i++ {
		_, err := e.Tick(1.0 / 60)
		require.NoError(t, err)
	}
	require.True(t, e.Running())

	require.NoError(t, e.Restart(12))
	assert.Equal(t, clean.Plan().Stages, e.Plan().Stages)
	runToEnd(t, e, 1.0/60)
	assert.Equal(t, clean.Result(), e.Result())
	assertPristine(t, e.Graph())
}

func TestTick_TriangleAlreadyBuffered(t *testing.T) {
	e, s := newEngine(t, meshio.Icosphere(1))
	require.NoError(t, e.Restart(12))
	p := e.Plan()
	require.Greater(t, p.Len(), 1)

	// Mark a stage-1 triangle as already emitted before its stage loads.
	e.Graph().Triangle(p.Stages[1][0]).InMesh = true

	step, err := e.Tick(1.0 / 60)
	require.NoError(t, err)
	require.Equal(t, StepStageComplete, step)

	step, err = e.Tick(1.0 / 60)
	assert.ErrorIs(t, err, ErrTriangleAlreadyBuffered)
	assert.Equal(t, StepIdle, step)
	assert.False(t, e.Running())
	assertPristine(t, e.Graph())

	// Only the settled seed stage survives.
	res := e.Result()
	assert.Len(t, res.Indices, 3*len(p.Stages[0]))
	assert.Equal(t, res.Indices, s.indices)

	step, err = e.Tick(1.0 / 60)
	require.NoError(t, err)
	assert.Equal(t, StepIdle, step)
}

func TestRestartRandom(t *testing.T) {
	e, _ := newEngine(t, meshio.Cube(1), WithRand(rand.New(rand.NewPCG(1, 2))))
	seed, err := e.RestartRandom()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, seed, 0)
	assert.Less(t, seed, 12)
	assert.Equal(t, seed, e.Seed())
}

func TestSetFoldSpeed(t *testing.T) {
	slow, _ := newEngine(t, meshio.Icosphere(1))
	require.NoError(t, slow.Restart(0))
	slowTicks := runToEnd(t, slow, 1.0/60)

	fast, _ := newEngine(t, meshio.Icosphere(1))
	require.NoError(t, fast.SetFoldSpeed(4))
	require.NoError(t, fast.Restart(0))
	fastTicks := runToEnd(t, fast, 1.0/60)

	assert.Less(t, fastTicks, slowTicks)
	assert.ErrorIs(t, fast.SetFoldSpeed(-1), ErrInvalidConfig)
	assert.Equal(t, float32(4), fast.Config().FoldSpeed)
}

func TestConfig_SizeOffset(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, float32(1), cfg.SizeOffset(799))
	assert.Equal(t, float32(2), cfg.SizeOffset(800))
	assert.Equal(t, float32(3), cfg.SizeOffset(1700))

	cfg.SizeOffsetStep = 0
	assert.Equal(t, float32(1), cfg.SizeOffset(5000))
}

func TestClear(t *testing.T) {
	e, s := newEngine(t, meshio.Cube(1))
	require.NoError(t, e.Restart(0))
	_, err := e.Tick(0.1)
	require.NoError(t, err)

	e.Clear()
	assert.False(t, e.Running())
	assert.Empty(t, s.indices)
	assertPristine(t, e.Graph())
}
