// Package viewer runs the interactive reveal window.
package viewer

import (
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/meshfold/internal/config"
	"github.com/Faultbox/meshfold/internal/engine/camera"
	"github.com/Faultbox/meshfold/internal/engine/input"
	"github.com/Faultbox/meshfold/internal/engine/renderer"
	"github.com/Faultbox/meshfold/internal/engine/screenshot"
	"github.com/Faultbox/meshfold/internal/engine/window"
	"github.com/Faultbox/meshfold/internal/logger"
	"github.com/Faultbox/meshfold/internal/reveal"
)

// maxFrameTime caps dt so a stalled frame does not skip a whole stage.
const maxFrameTime = 0.1

// Viewer is the interactive reveal application.
type Viewer struct {
	cfg      *config.Config
	log      *zap.Logger
	running  bool
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	engine   *reveal.Engine
	cam      *camera.OrbitCamera
	controls *controls
	watcher  *config.Watcher
	shots    *screenshot.Capture
	meshName string
}

// New opens the window, loads the configured mesh and starts a reveal from a
// random triangle. configPath, when not empty, is watched for fold speed
// changes.
func New(cfg *config.Config, configPath string) (*Viewer, error) {
	v := &Viewer{cfg: cfg, log: logger.Named("viewer")}

	mesh, err := cfg.Mesh.LoadMesh()
	if err != nil {
		return nil, fmt.Errorf("failed to load mesh: %w", err)
	}
	v.meshName = cfg.Mesh.Path
	if v.meshName == "" {
		v.meshName = cfg.Mesh.Primitive
	}

	v.window, err = window.New(window.Config{
		Title:      cfg.Viewer.Title,
		Width:      cfg.Viewer.Width,
		Height:     cfg.Viewer.Height,
		Fullscreen: cfg.Viewer.Fullscreen,
		VSync:      cfg.Viewer.VSync,
	}, logger.Named("window"))
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The renderer needs the GL context the window just made.
	dw, dh := v.window.DrawableSize()
	v.renderer, err = renderer.New(renderer.DefaultConfig(dw, dh), logger.Named("renderer"))
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	v.renderer.Resize(dw, dh)

	v.engine, err = reveal.New(cfg.Fold.Reveal(), v.renderer, reveal.WithLogger(logger.Named("reveal")))
	if err != nil {
		v.Close()
		return nil, err
	}
	if err := v.engine.Initialize(mesh.Positions, mesh.Indices); err != nil {
		v.Close()
		return nil, fmt.Errorf("%s: %w", v.meshName, err)
	}

	v.cam = camera.NewOrbitCamera()
	v.cam.FitToBounds(mesh.Bounds())

	g := v.engine.Graph()
	ww, wh := v.window.Size()
	v.controls = &controls{engine: v.engine, cam: v.cam, log: v.log, width: ww, height: wh}
	v.controls.setMesh(g.Positions(), g.Indices())
	v.input = input.New()
	v.shots = screenshot.New("screenshots", "meshfold")

	if configPath != "" {
		v.watcher, err = config.Watch(configPath, logger.Named("config"))
		if err != nil {
			v.log.Warn("config hot reload disabled", zap.String("path", configPath), zap.Error(err))
		}
	}

	if _, err := v.engine.RestartRandom(); err != nil {
		v.Close()
		return nil, err
	}

	v.log.Info("viewer initialized",
		zap.String("mesh", v.meshName),
		zap.Int("triangles", mesh.NumTriangles()),
	)
	return v, nil
}

// Run drives the frame loop until the window closes.
func (v *Viewer) Run() error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("starting frame loop")

	for v.running {
		now := time.Now()
		dt := min(now.Sub(lastTime).Seconds(), maxFrameTime)
		lastTime = now

		if v.input.Update() {
			v.running = false
			break
		}
		for _, event := range v.input.Events() {
			if event.Type == input.EventWindowResize {
				v.resize()
			}
			v.controls.handle(event)
		}
		if v.controls.quit {
			v.running = false
			break
		}

		v.applyConfigChanges()

		if _, err := v.engine.Tick(float32(dt)); err != nil {
			v.log.Error("reveal aborted", zap.Error(err))
		}

		v.renderer.Draw(v.cam.ViewProjection(v.renderer.Aspect()))
		if v.input.KeyPressed(sdl.K_F12) {
			v.screenshot()
		}
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.window.SetTitle(v.title(frameCount))
			v.log.Debug("fps", zap.Int("count", frameCount), zap.Float64("dt_ms", dt*1000))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (v *Viewer) resize() {
	dw, dh := v.window.DrawableSize()
	v.renderer.Resize(dw, dh)
	v.controls.width, v.controls.height = v.window.Size()
}

func (v *Viewer) screenshot() {
	img, err := screenshot.FromGL(v.renderer.ReadPixels())
	if err != nil {
		v.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	path, err := v.shots.Save(img, fmt.Sprintf("seed%d", v.engine.Seed()))
	if err != nil {
		v.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

func (v *Viewer) applyConfigChanges() {
	if v.watcher == nil {
		return
	}
	select {
	case cfg := <-v.watcher.Changes():
		v.controls.setSpeed(cfg.Fold.Speed)
	default:
	}
}

func (v *Viewer) title(fps int) string {
	status := "idle"
	if v.engine.Running() {
		status = fmt.Sprintf("stage %d/%d", v.engine.StageIndex()+1, v.engine.Plan().Len())
	}
	return fmt.Sprintf("%s - %s - seed %d - %s - speed %.2f - %d fps",
		v.cfg.Viewer.Title, v.meshName, v.engine.Seed(), status, v.engine.Config().FoldSpeed, fps)
}

// Close releases the window, GL resources and the config watcher.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.watcher != nil {
		if err := v.watcher.Close(); err != nil {
			v.log.Warn("closing config watcher", zap.Error(err))
		}
	}
	if v.engine != nil {
		v.engine.Finalize()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
