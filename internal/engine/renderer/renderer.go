// Package renderer draws the revealed mesh with OpenGL.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/meshfold/internal/engine/shader"
	"github.com/Faultbox/meshfold/pkg/math"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int

	Color     math.Vec3
	BackColor math.Vec3
	LightDir  math.Vec3
	Ambient   float32
}

// DefaultConfig returns a neutral grey material lit from the upper left.
func DefaultConfig(width, height int) Config {
	return Config{
		Width:     width,
		Height:    height,
		Color:     math.Vec3{X: 0.78, Y: 0.8, Z: 0.85},
		BackColor: math.Vec3{X: 0.85, Y: 0.45, Z: 0.3},
		LightDir:  math.Vec3{X: -0.4, Y: -1, Z: -0.6},
		Ambient:   0.25,
	}
}

// Renderer owns the GL state for one dynamic mesh. It implements
// reveal.Surface: the engine pushes geometry into it and Draw uploads
// whatever changed since the previous frame.
type Renderer struct {
	config Config
	log    *zap.Logger

	program  uint32
	locVP    int32
	locLight int32
	locColor int32
	locBack  int32
	locAmb   int32

	vao, posVBO, normVBO, ebo uint32

	positions []math.Vec3
	indices   []uint32
	normals   []math.Vec3

	positionsDirty bool
	indicesDirty   bool
	normalsDirty   bool

	// GPU buffer capacities in elements.
	posCap, idxCap int
}

// New creates a renderer. It must be called after the GL context exists.
func New(cfg Config, log *zap.Logger) (*Renderer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Renderer{config: cfg, log: log}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Disable(gl.CULL_FACE)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)

	var err error
	r.program, err = shader.CompileProgram(shader.MeshVertex, shader.MeshFragment)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}
	r.locVP = shader.MustUniform(r.program, "uViewProj")
	r.locLight = shader.Uniform(r.program, "uLightDir")
	r.locColor = shader.Uniform(r.program, "uColor")
	r.locBack = shader.Uniform(r.program, "uBackColor")
	r.locAmb = shader.Uniform(r.program, "uAmbient")

	r.createBuffers()
	r.log.Debug("mesh buffers created", zap.Uint32("vao", r.vao))
	return r, nil
}

func (r *Renderer) createBuffers() {
	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	gl.GenBuffers(1, &r.posVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.posVBO)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, nil)
	gl.EnableVertexAttribArray(0)

	gl.GenBuffers(1, &r.normVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.normVBO)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, 3*4, nil)
	gl.EnableVertexAttribArray(1)

	gl.GenBuffers(1, &r.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.ebo)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// Close releases GL resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	for _, b := range []*uint32{&r.posVBO, &r.normVBO, &r.ebo} {
		if *b != 0 {
			gl.DeleteBuffers(1, b)
		}
	}
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
	}
	if r.program != 0 {
		gl.DeleteProgram(r.program)
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// Aspect returns the viewport aspect ratio.
func (r *Renderer) Aspect() float32 {
	if r.config.Height == 0 {
		return 1
	}
	return float32(r.config.Width) / float32(r.config.Height)
}

// SetMesh replaces the displayed geometry.
func (r *Renderer) SetMesh(positions []math.Vec3, indices []uint32) {
	r.positions = append(r.positions[:0], positions...)
	r.indices = append(r.indices[:0], indices...)
	r.positionsDirty = true
	r.indicesDirty = true
	r.normalsDirty = true
}

// UpdatePositions replaces vertex positions and keeps the index list.
func (r *Renderer) UpdatePositions(positions []math.Vec3) {
	r.positions = append(r.positions[:0], positions...)
	r.positionsDirty = true
}

// RecalculateNormals marks normals for rederivation on the next Draw.
func (r *Renderer) RecalculateNormals() {
	r.normalsDirty = true
}

// Clear removes all geometry.
func (r *Renderer) Clear() {
	r.positions = r.positions[:0]
	r.indices = r.indices[:0]
	r.normals = r.normals[:0]
	r.positionsDirty = true
	r.indicesDirty = true
	r.normalsDirty = false
}

// Draw clears the frame and draws the mesh with the given view-projection.
func (r *Renderer) Draw(viewProj math.Mat4) {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	if len(r.indices) == 0 {
		return
	}
	r.upload()

	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.locVP, 1, false, viewProj.Ptr())
	gl.Uniform3f(r.locLight, r.config.LightDir.X, r.config.LightDir.Y, r.config.LightDir.Z)
	gl.Uniform3f(r.locColor, r.config.Color.X, r.config.Color.Y, r.config.Color.Z)
	gl.Uniform3f(r.locBack, r.config.BackColor.X, r.config.BackColor.Y, r.config.BackColor.Z)
	gl.Uniform1f(r.locAmb, r.config.Ambient)

	gl.BindVertexArray(r.vao)
	gl.DrawElements(gl.TRIANGLES, int32(len(r.indices)), gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

// ReadPixels returns the current back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() (pixels []byte, width, height int) {
	width, height = r.config.Width, r.config.Height
	pixels = make([]byte, width*height*4)
	if len(pixels) == 0 {
		return pixels, width, height
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	return pixels, width, height
}

// Triangles returns the number of triangles currently held.
func (r *Renderer) Triangles() int {
	return len(r.indices) / 3
}

func (r *Renderer) upload() {
	if r.normalsDirty || r.positionsDirty {
		r.normals = SmoothNormals(r.normals, r.positions, r.indices)
		r.normalsDirty = false
	}

	if r.positionsDirty {
		grow := len(r.positions) > r.posCap
		if grow {
			r.posCap = max(len(r.positions), r.posCap*2)
		}
		uploadVec3(r.posVBO, r.positions, r.posCap, grow)
		uploadVec3(r.normVBO, r.normals, r.posCap, grow)
		r.positionsDirty = false
	}

	if r.indicesDirty {
		gl.BindVertexArray(r.vao)
		if len(r.indices) > r.idxCap {
			r.idxCap = max(len(r.indices), r.idxCap*2)
			gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, r.idxCap*4, nil, gl.DYNAMIC_DRAW)
		}
		gl.BufferSubData(gl.ELEMENT_ARRAY_BUFFER, 0, len(r.indices)*4, unsafe.Pointer(&r.indices[0]))
		gl.BindVertexArray(0)
		r.indicesDirty = false
	}
}

func uploadVec3(vbo uint32, data []math.Vec3, capacity int, grow bool) {
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	if grow {
		gl.BufferData(gl.ARRAY_BUFFER, capacity*3*4, nil, gl.DYNAMIC_DRAW)
	}
	if len(data) > 0 {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(data)*3*4, unsafe.Pointer(&data[0]))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}
