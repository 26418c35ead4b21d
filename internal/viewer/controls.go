package viewer

import (
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/meshfold/internal/engine/camera"
	"github.com/Faultbox/meshfold/internal/engine/input"
	"github.com/Faultbox/meshfold/internal/engine/picking"
	"github.com/Faultbox/meshfold/internal/reveal"
	"github.com/Faultbox/meshfold/pkg/math"
)

const (
	// dragThreshold is how far, in pixels, the pointer may move before a
	// press stops counting as a click.
	dragThreshold = 4
	speedStep     = 1.25
)

// controls maps input events onto the engine and the camera.
type controls struct {
	engine *reveal.Engine
	cam    *camera.OrbitCamera
	log    *zap.Logger

	// Window size in screen coordinates, the space mouse events use.
	width, height int

	// Welded mesh for picking; triangle i is engine triangle i.
	positions []math.Vec3
	indices   []uint32

	pressed        bool
	dragging       bool
	pressX, pressY int

	quit bool
}

func (c *controls) setMesh(positions []math.Vec3, indices []uint32) {
	c.positions = positions
	c.indices = indices
}

func (c *controls) handle(ev input.Event) {
	switch ev.Type {
	case input.EventQuit:
		c.quit = true

	case input.EventKeyDown:
		if !ev.Repeat {
			c.key(ev.Key)
		}

	case input.EventMouseDown:
		if ev.Button == sdl.BUTTON_LEFT {
			c.pressed, c.dragging = true, false
			c.pressX, c.pressY = ev.MouseX, ev.MouseY
		}

	case input.EventMouseMove:
		if !c.pressed {
			return
		}
		if !c.dragging && (abs(ev.MouseX-c.pressX) > dragThreshold || abs(ev.MouseY-c.pressY) > dragThreshold) {
			c.dragging = true
		}
		if c.dragging {
			c.cam.HandleDrag(float32(ev.DeltaX), float32(ev.DeltaY))
		}

	case input.EventMouseUp:
		if ev.Button == sdl.BUTTON_LEFT && c.pressed {
			if !c.dragging {
				c.pick(ev.MouseX, ev.MouseY)
			}
			c.pressed, c.dragging = false, false
		}

	case input.EventMouseWheel:
		c.cam.HandleZoom(ev.Wheel)
	}
}

func (c *controls) key(k sdl.Keycode) {
	switch k {
	case sdl.K_ESCAPE:
		c.quit = true
	case sdl.K_r:
		seed, err := c.engine.RestartRandom()
		if err != nil {
			c.log.Warn("restart failed", zap.Error(err))
			return
		}
		c.log.Info("restarted", zap.Int("seed", seed))
	case sdl.K_c:
		c.engine.Clear()
	case sdl.K_SPACE:
		c.engine.Finalize()
	case sdl.K_PLUS, sdl.K_EQUALS, sdl.K_KP_PLUS:
		c.setSpeed(c.engine.Config().FoldSpeed * speedStep)
	case sdl.K_MINUS, sdl.K_KP_MINUS:
		c.setSpeed(c.engine.Config().FoldSpeed / speedStep)
	}
}

func (c *controls) setSpeed(speed float32) {
	if err := c.engine.SetFoldSpeed(speed); err != nil {
		c.log.Warn("fold speed rejected", zap.Float32("speed", speed), zap.Error(err))
		return
	}
	c.log.Info("fold speed changed", zap.Float32("speed", speed))
}

// pick restarts the reveal from the triangle under the pointer.
func (c *controls) pick(x, y int) {
	if c.width <= 0 || c.height <= 0 {
		return
	}
	ray := picking.ScreenToRay(float32(x), float32(y), float32(c.width), float32(c.height),
		c.cam.Position(), c.cam.Center, c.cam.FovY)
	tri, _, ok := picking.PickTriangle(ray, c.positions, c.indices)
	if !ok {
		return
	}
	if err := c.engine.Restart(tri); err != nil {
		c.log.Warn("restart failed", zap.Int("seed", tri), zap.Error(err))
		return
	}
	c.log.Info("restarted from picked triangle", zap.Int("seed", tri))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
