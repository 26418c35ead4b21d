// Package snapshot rasterizes the revealed mesh off screen with gg so runs
// can be inspected without a GL context.
package snapshot

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"

	"github.com/gogpu/gg"
	"go.uber.org/zap"

	"github.com/Faultbox/meshfold/pkg/math"
)

// Options configures a Recorder.
type Options struct {
	Width, Height int
	Background    gg.RGBA
	Color         math.Vec3
	LightDir      math.Vec3
	Ambient       float32
}

// DefaultOptions returns the palette used by the viewer.
func DefaultOptions(width, height int) Options {
	return Options{
		Width:      width,
		Height:     height,
		Background: gg.RGB(0.1, 0.1, 0.15),
		Color:      math.Vec3{X: 0.78, Y: 0.8, Z: 0.85},
		LightDir:   math.Vec3{X: -0.4, Y: -1, Z: -0.6},
		Ambient:    0.25,
	}
}

// Recorder keeps a copy of the live mesh and renders it on demand. It
// satisfies reveal.Surface.
type Recorder struct {
	opts     Options
	viewProj math.Mat4
	log      *zap.Logger

	positions []math.Vec3
	indices   []uint32
	frames    int
}

// NewRecorder returns a recorder that projects with viewProj.
func NewRecorder(opts Options, viewProj math.Mat4, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{opts: opts, viewProj: viewProj, log: log}
}

// SetView changes the projection used by later renders.
func (r *Recorder) SetView(viewProj math.Mat4) {
	r.viewProj = viewProj
}

func (r *Recorder) SetMesh(positions []math.Vec3, indices []uint32) {
	r.positions = append(r.positions[:0], positions...)
	r.indices = append(r.indices[:0], indices...)
}

func (r *Recorder) UpdatePositions(positions []math.Vec3) {
	r.positions = append(r.positions[:0], positions...)
}

// RecalculateNormals is a no-op: faces are shaded flat at render time.
func (r *Recorder) RecalculateNormals() {}

func (r *Recorder) Clear() {
	r.positions = r.positions[:0]
	r.indices = r.indices[:0]
}

// Triangles returns the number of triangles currently held.
func (r *Recorder) Triangles() int {
	return len(r.indices) / 3
}

// Frames returns how many frames SaveFrame has written.
func (r *Recorder) Frames() int {
	return r.frames
}

type face struct {
	pts   [3]math.Vec3 // screen x, y and NDC depth
	depth float32
	shade float32
}

// Render draws the current mesh. Triangles are painted back to front and
// shaded flat from both sides.
func (r *Recorder) Render() (image.Image, error) {
	dc := gg.NewContext(r.opts.Width, r.opts.Height)
	defer dc.Close()
	if err := r.draw(dc); err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

func (r *Recorder) draw(dc *gg.Context) error {
	dc.ClearWithColor(r.opts.Background)

	faces := r.project()
	sort.SliceStable(faces, func(i, j int) bool { return faces[i].depth > faces[j].depth })

	c := r.opts.Color
	for _, f := range faces {
		dc.SetRGB(float64(c.X*f.shade), float64(c.Y*f.shade), float64(c.Z*f.shade))
		dc.MoveTo(float64(f.pts[0].X), float64(f.pts[0].Y))
		dc.LineTo(float64(f.pts[1].X), float64(f.pts[1].Y))
		dc.LineTo(float64(f.pts[2].X), float64(f.pts[2].Y))
		dc.ClosePath()
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("fill triangle: %w", err)
		}
	}
	return nil
}

func (r *Recorder) project() []face {
	w, h := float32(r.opts.Width), float32(r.opts.Height)
	light := r.opts.LightDir.Scale(-1).Normalize()

	faces := make([]face, 0, len(r.indices)/3)
outer:
	for i := 0; i+2 < len(r.indices); i += 3 {
		var f face
		var world [3]math.Vec3
		for k := 0; k < 3; k++ {
			world[k] = r.positions[r.indices[i+k]]
			ndc, ok := r.viewProj.Project(world[k])
			if !ok {
				continue outer
			}
			f.pts[k] = math.Vec3{X: (ndc.X + 1) / 2 * w, Y: (1 - ndc.Y) / 2 * h, Z: ndc.Z}
			f.depth += ndc.Z / 3
		}

		diffuse := math.TriangleNormal(world[0], world[1], world[2]).Dot(light)
		if diffuse < 0 {
			diffuse = -diffuse
		}
		f.shade = r.opts.Ambient + (1-r.opts.Ambient)*diffuse
		faces = append(faces, f)
	}
	return faces
}

// SavePNG renders the current mesh to path.
func (r *Recorder) SavePNG(path string) error {
	dc := gg.NewContext(r.opts.Width, r.opts.Height)
	defer dc.Close()
	if err := r.draw(dc); err != nil {
		return err
	}
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// SaveFrame writes the next numbered frame into dir and returns its path.
func (r *Recorder) SaveFrame(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create frame directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("frame_%04d.png", r.frames))
	if err := r.SavePNG(path); err != nil {
		return "", err
	}
	r.frames++
	r.log.Debug("frame saved", zap.String("path", path), zap.Int("triangles", r.Triangles()))
	return path, nil
}
