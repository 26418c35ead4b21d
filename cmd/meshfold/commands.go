package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"text/tabwriter"

	"github.com/Faultbox/meshfold/internal/config"
	"github.com/Faultbox/meshfold/internal/engine/camera"
	"github.com/Faultbox/meshfold/internal/logger"
	"github.com/Faultbox/meshfold/internal/reveal"
	"github.com/Faultbox/meshfold/internal/snapshot"
	"github.com/Faultbox/meshfold/internal/stage"
	"github.com/Faultbox/meshfold/internal/topology"
	"github.com/Faultbox/meshfold/pkg/math"
)

func cmdInfo(args []string, out io.Writer) error {
	fs, cf := newFlagSet("info", out)
	s, err := open(fs, cf, args)
	if err != nil {
		return err
	}
	g, err := s.graph()
	if err != nil {
		return err
	}

	var hist [4]int
	openEdges := 0
	for i := 0; i < g.NumTriangles(); i++ {
		n := len(g.Triangle(topology.TriangleID(i)).Neighbours)
		hist[n]++
		openEdges += 3 - n
	}
	lo, hi := s.mesh.Bounds()

	fmt.Fprintf(out, "Mesh:       %s\n", s.name)
	fmt.Fprintf(out, "Vertices:   %d (%d after welding)\n", len(s.mesh.Positions), g.NumOriginalVertices())
	fmt.Fprintf(out, "Triangles:  %d\n", g.NumTriangles())
	fmt.Fprintf(out, "Bounds:     (%.3f, %.3f, %.3f) - (%.3f, %.3f, %.3f)\n", lo.X, lo.Y, lo.Z, hi.X, hi.Y, hi.Z)
	fmt.Fprintf(out, "Components: %d\n", components(g))
	fmt.Fprintf(out, "Open edges: %d\n", openEdges)
	fmt.Fprintln(out, "Triangles by neighbour count:")
	for n, count := range hist {
		fmt.Fprintf(out, "  %d  %d\n", n, count)
	}
	return nil
}

// components counts edge-connected triangle groups.
func components(g *topology.Graph) int {
	seen := make([]bool, g.NumTriangles())
	count := 0
	var queue []topology.TriangleID
	for start := range seen {
		if seen[start] {
			continue
		}
		count++
		seen[start] = true
		queue = append(queue[:0], topology.TriangleID(start))
		for len(queue) > 0 {
			t := queue[0]
			queue = queue[1:]
			for _, n := range g.Triangle(t).Neighbours {
				if !seen[n] {
					seen[n] = true
					queue = append(queue, n)
				}
			}
		}
	}
	return count
}

func cmdPlan(args []string, out io.Writer) error {
	fs, cf := newFlagSet("plan", out)
	seed := fs.Int("seed", 0, "Seed triangle")
	verbose := fs.Bool("v", false, "List the triangles of each stage")
	s, err := open(fs, cf, args)
	if err != nil {
		return err
	}
	g, err := s.graph()
	if err != nil {
		return err
	}

	p, err := stage.Compute(g, topology.TriangleID(*seed))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Mesh:        %s (%d triangles)\n", s.name, g.NumTriangles())
	fmt.Fprintf(out, "Seed:        %d\n", p.Seed)
	fmt.Fprintf(out, "Stages:      %d\n", p.Len())
	fmt.Fprintf(out, "Largest:     %d triangles\n", p.MaxStageTris)
	fmt.Fprintf(out, "Demoted:     %d\n", p.Demoted)
	fmt.Fprintf(out, "Unreached:   %d\n", g.NumTriangles()-p.TriangleCount())
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "stage\ttris\tsingle anchor\t")
	for k, tris := range p.Stages {
		single := 0
		for _, id := range tris {
			if len(g.Triangle(id).Anchored) == 1 {
				single++
			}
		}
		line := fmt.Sprintf("%d\t%d\t%d\t", k, len(tris), single)
		if *verbose {
			ids := make([]string, len(tris))
			for i, id := range tris {
				ids[i] = fmt.Sprint(id)
			}
			line += strings.Join(ids, " ")
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}

// counter is a surface that only tracks what it was sent.
type counter struct {
	sets, updates, normals, clears int
	triangles                      int
}

func (c *counter) SetMesh(_ []math.Vec3, indices []uint32) {
	c.sets++
	c.triangles = len(indices) / 3
}
func (c *counter) UpdatePositions([]math.Vec3) { c.updates++ }
func (c *counter) RecalculateNormals()         { c.normals++ }
func (c *counter) Clear()                      { c.clears++; c.triangles = 0 }

// runFlags are shared by run and render.
type runFlags struct {
	seed     *int
	randSeed *uint64
	fps      *int
	maxTicks *int
}

func bindRunFlags(fs *flag.FlagSet) runFlags {
	return runFlags{
		seed:     fs.Int("seed", -1, "Seed triangle (-1 picks one at random)"),
		randSeed: fs.Uint64("rand", 0, "Random source seed for -seed -1 (0 = nondeterministic)"),
		fps:      fs.Int("fps", 60, "Simulated frames per second"),
		maxTicks: fs.Int("max-ticks", 1_000_000, "Abort after this many ticks"),
	}
}

func (f runFlags) engine(cfg *config.Config, surface reveal.Surface) (*reveal.Engine, error) {
	opts := []reveal.Option{reveal.WithLogger(logger.Named("reveal"))}
	if *f.randSeed != 0 {
		opts = append(opts, reveal.WithRand(rand.New(rand.NewPCG(*f.randSeed, *f.randSeed))))
	}
	return reveal.New(cfg.Fold.Reveal(), surface, opts...)
}

func (f runFlags) restart(e *reveal.Engine) error {
	if *f.seed < 0 {
		_, err := e.RestartRandom()
		return err
	}
	return e.Restart(*f.seed)
}

func (f runFlags) dt() (float32, error) {
	if *f.fps <= 0 {
		return 0, fmt.Errorf("fps must be positive, got %d", *f.fps)
	}
	return 1 / float32(*f.fps), nil
}

// drive ticks e until the reveal finishes, calling onStep after every tick.
func (f runFlags) drive(e *reveal.Engine, onStep func(stageIndex int, step reveal.Step) error) (int, error) {
	dt, err := f.dt()
	if err != nil {
		return 0, err
	}
	ticks := 0
	for e.Running() {
		if ticks >= *f.maxTicks {
			e.Finalize()
			return ticks, fmt.Errorf("reveal did not finish within %d ticks", *f.maxTicks)
		}
		k := e.StageIndex()
		step, err := e.Tick(dt)
		if err != nil {
			return ticks, err
		}
		ticks++
		if err := onStep(k, step); err != nil {
			e.Finalize()
			return ticks, err
		}
	}
	return ticks, nil
}

func cmdRun(args []string, out io.Writer) error {
	fs, cf := newFlagSet("run", out)
	rf := bindRunFlags(fs)
	s, err := open(fs, cf, args)
	if err != nil {
		return err
	}

	surface := &counter{}
	e, err := rf.engine(s.cfg, surface)
	if err != nil {
		return err
	}
	if err := e.Initialize(s.mesh.Positions, s.mesh.Indices); err != nil {
		return err
	}
	if err := rf.restart(e); err != nil {
		return err
	}
	p := e.Plan()

	perStage := make([]int, p.Len())
	ticks, err := rf.drive(e, func(k int, _ reveal.Step) error {
		if k < len(perStage) {
			perStage[k]++
		}
		return nil
	})
	if err != nil {
		return err
	}

	fps := float32(*rf.fps)
	fmt.Fprintf(out, "Mesh:    %s (%d triangles)\n", s.name, s.mesh.NumTriangles())
	fmt.Fprintf(out, "Seed:    %d\n", e.Seed())
	fmt.Fprintf(out, "Speed:   %.2f (size offset %.2f)\n", e.Config().FoldSpeed, e.Config().SizeOffset(s.mesh.NumTriangles()))
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "stage\ttris\tticks\tseconds\t")
	for k, tris := range p.Stages {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%.3f\t\n", k, len(tris), perStage[k], float32(perStage[k])/fps)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	result := e.Result()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Total:   %d ticks, %.2fs at %d fps\n", ticks, float32(ticks)/fps, *rf.fps)
	fmt.Fprintf(out, "Result:  %d triangles, %d vertices\n", result.NumTriangles(), len(result.Positions))
	fmt.Fprintf(out, "Surface: %d uploads, %d position updates, %d normal passes\n", surface.sets, surface.updates, surface.normals)

	if err := e.Graph().Validate(); err != nil {
		return fmt.Errorf("graph after reveal: %w", err)
	}
	return nil
}

func cmdRender(args []string, out io.Writer) error {
	fs, cf := newFlagSet("render", out)
	rf := bindRunFlags(fs)
	dir := fs.String("o", "frames", "Output directory")
	size := fs.Int("size", 512, "Image width and height")
	every := fs.Int("every", 0, "Also save a frame every N ticks while folding (0 = stage ends only)")
	s, err := open(fs, cf, args)
	if err != nil {
		return err
	}
	if *size <= 0 {
		return fmt.Errorf("size must be positive, got %d", *size)
	}

	cam := camera.NewOrbitCamera()
	cam.FitToBounds(s.mesh.Bounds())
	rec := snapshot.NewRecorder(snapshot.DefaultOptions(*size, *size), cam.ViewProjection(1), logger.Named("snapshot"))

	e, err := rf.engine(s.cfg, rec)
	if err != nil {
		return err
	}
	if err := e.Initialize(s.mesh.Positions, s.mesh.Indices); err != nil {
		return err
	}
	if err := rf.restart(e); err != nil {
		return err
	}
	if _, err := rec.SaveFrame(*dir); err != nil {
		return err
	}

	sinceFrame := 0
	_, err = rf.drive(e, func(_ int, step reveal.Step) error {
		sinceFrame++
		if step == reveal.StepStageComplete || step == reveal.StepFinished || (*every > 0 && sinceFrame >= *every) {
			sinceFrame = 0
			_, err := rec.SaveFrame(*dir)
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Wrote %d frames of %s to %s\n", rec.Frames(), s.name, *dir)
	return nil
}

func cmdInitConfig(args []string, out io.Writer) error {
	fs, _ := newFlagSet("init-config", out)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	cfg := config.Default()
	if fs.NArg() > 0 {
		if err := cfg.SaveTo(fs.Arg(0)); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", fs.Arg(0))
		return nil
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", config.ConfigDir())
	return nil
}
