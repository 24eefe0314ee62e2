// Package renderer provides the OpenGL backend that draws scene frames.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/modelview/internal/engine/scene"
	"github.com/Faultbox/modelview/internal/engine/shader"
	"github.com/Faultbox/modelview/internal/engine/shadow"
	"github.com/Faultbox/modelview/internal/logger"
	"github.com/Faultbox/modelview/pkg/math"
	"github.com/Faultbox/modelview/pkg/scenegraph"
)

// maxDirectionalLights must match the array size in the fragment shader.
const maxDirectionalLights = 4

// shadowUnit is the texture unit the shadow map is sampled from.
const shadowUnit = 1

// Config holds renderer configuration.
type Config struct {
	ClearColor       [4]float32
	Shadows          bool
	ShadowResolution int
}

// DefaultConfig returns a transparent background and a 2048 texel shadow
// map.
func DefaultConfig() Config {
	return Config{
		ClearColor:       [4]float32{0, 0, 0, 0},
		Shadows:          true,
		ShadowResolution: shadow.DefaultResolution,
	}
}

type gpuMesh struct {
	vao, vbo, ebo uint32
	count         int32
	indexed       bool
}

// Renderer draws frames with OpenGL 4.1 core.
type Renderer struct {
	config    Config
	program   *shader.Program
	depth     *shader.Program
	shadowMap *shadow.Map

	meshes map[scene.MeshHandle]*gpuMesh
	next   scene.MeshHandle

	width, height int
	capture       func(pixels []byte, width, height int)
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
		meshes: make(map[scene.MeshHandle]*gpuMesh),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.FRAMEBUFFER_SRGB)
	c := cfg.ClearColor
	gl.ClearColor(c[0], c[1], c[2], c[3])

	var err error
	r.program, err = shader.New(vertexShader, fragmentShader)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}
	logger.Debug("shader program created", zap.Uint32("program", r.program.ID))

	if cfg.Shadows {
		r.initShadows(int32(cfg.ShadowResolution))
	}
	return r, nil
}

// initShadows sets up the depth pass. A driver that cannot provide it
// leaves the renderer drawing without shadows.
func (r *Renderer) initShadows(resolution int32) {
	depth, err := shader.New(depthVertexShader, depthFragmentShader)
	if err != nil {
		logger.Warn("shadows disabled", zap.Error(err))
		return
	}
	sm, err := shadow.NewMap(resolution)
	if err != nil {
		depth.Delete()
		logger.Warn("shadows disabled", zap.Error(err))
		return
	}
	r.depth, r.shadowMap = depth, sm
	logger.Debug("shadow map created", zap.Int32("resolution", sm.Resolution))
}

// Name implements surface.Drawable.
func (r *Renderer) Name() string {
	return "opengl"
}

// UploadMesh creates a VAO with interleaved positions and normals.
func (r *Renderer) UploadMesh(mesh *scenegraph.Mesh) (scene.MeshHandle, error) {
	if len(mesh.Positions) == 0 {
		return 0, fmt.Errorf("mesh %q has no vertices", mesh.Name)
	}
	mesh.EnsureNormals()

	vertices := make([]float32, 0, len(mesh.Positions)*6)
	for i, p := range mesh.Positions {
		n := mesh.Normals[i]
		vertices = append(vertices, p.X, p.Y, p.Z, n.X, n.Y, n.Z)
	}

	m := &gpuMesh{count: int32(len(mesh.Positions))}

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	// Position attribute (location = 0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 6*4, nil)
	gl.EnableVertexAttribArray(0)

	// Normal attribute (location = 1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, 6*4, unsafe.Pointer(uintptr(3*4)))
	gl.EnableVertexAttribArray(1)

	if len(mesh.Indices) > 0 {
		gl.GenBuffers(1, &m.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, gl.Ptr(mesh.Indices), gl.STATIC_DRAW)
		m.count = int32(len(mesh.Indices))
		m.indexed = true
	}

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	if err := glError(); err != nil {
		r.deleteMesh(m)
		return 0, fmt.Errorf("uploading mesh %q: %w", mesh.Name, err)
	}

	r.next++
	r.meshes[r.next] = m
	logger.Debug("mesh uploaded",
		zap.String("name", mesh.Name),
		zap.Int("vertices", len(mesh.Positions)),
		zap.Uint32("vao", m.vao),
	)
	return r.next, nil
}

// ReleaseMesh frees the buffers behind h.
func (r *Renderer) ReleaseMesh(h scene.MeshHandle) {
	m, ok := r.meshes[h]
	if !ok {
		return
	}
	r.deleteMesh(m)
	delete(r.meshes, h)
}

func (r *Renderer) deleteMesh(m *gpuMesh) {
	if m.ebo != 0 {
		gl.DeleteBuffers(1, &m.ebo)
	}
	if m.vbo != 0 {
		gl.DeleteBuffers(1, &m.vbo)
	}
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
	}
}

// SetViewport handles surface resize.
func (r *Renderer) SetViewport(width, height int) {
	r.width, r.height = width, height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// CaptureNext reads back the next drawn frame and passes its bottom-up RGBA
// pixels to fn.
func (r *Renderer) CaptureNext(fn func(pixels []byte, width, height int)) {
	r.capture = fn
}

// Draw renders the shadow caster's depth pass, if any, then clears the
// target and draws every item of frame.
func (r *Renderer) Draw(frame *scene.Frame) error {
	lights := collectLights(frame.Lights)

	lightViewProj := math.Identity()
	shadowLight := int32(-1)
	if r.shadowMap.IsValid() && lights.caster >= 0 && !frame.Bounds.IsEmpty() && len(frame.Draws) > 0 {
		lightViewProj = shadow.DirectionalLightMatrix(lights.casterDir, frame.Bounds)
		if err := r.drawDepth(frame, lightViewProj); err != nil {
			return err
		}
		shadowLight = lights.caster
	}

	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	p := r.program
	p.Use()
	gl.UniformMatrix4fv(p.Uniform("uProjection"), 1, false, frame.Projection.Ptr())
	gl.UniformMatrix4fv(p.Uniform("uView"), 1, false, frame.View.Ptr())
	gl.UniformMatrix4fv(p.Uniform("uLightViewProj"), 1, false, lightViewProj.Ptr())
	r.setLights(lights)
	r.setShadow(shadowLight)

	for _, d := range frame.Draws {
		m, ok := r.meshes[d.Mesh]
		if !ok {
			return fmt.Errorf("draw references unknown mesh %d", d.Mesh)
		}

		model := d.Model
		gl.UniformMatrix4fv(p.Uniform("uModel"), 1, false, model.Ptr())
		baseColor := [4]float32{1, 1, 1, 1}
		var emissive [3]float32
		if d.Material != nil {
			baseColor = d.Material.BaseColor
			emissive = d.Material.Emissive
			if d.Material.DoubleSided {
				gl.Disable(gl.CULL_FACE)
			} else {
				gl.Enable(gl.CULL_FACE)
			}
		}
		gl.Uniform4fv(p.Uniform("uBaseColor"), 1, &baseColor[0])
		gl.Uniform3fv(p.Uniform("uEmissive"), 1, &emissive[0])

		m.draw()
	}
	gl.BindVertexArray(0)

	if r.capture != nil {
		fn := r.capture
		r.capture = nil
		fn(r.readPixels(), r.width, r.height)
	}

	return glError()
}

// drawDepth renders every draw into the shadow map as seen from the light.
func (r *Renderer) drawDepth(frame *scene.Frame, lightViewProj math.Mat4) error {
	r.shadowMap.Bind()
	defer r.shadowMap.Unbind()

	p := r.depth
	p.Use()
	gl.UniformMatrix4fv(p.Uniform("uLightViewProj"), 1, false, lightViewProj.Ptr())
	for _, d := range frame.Draws {
		m, ok := r.meshes[d.Mesh]
		if !ok {
			return fmt.Errorf("draw references unknown mesh %d", d.Mesh)
		}
		model := d.Model
		gl.UniformMatrix4fv(p.Uniform("uModel"), 1, false, model.Ptr())
		if d.Material != nil && d.Material.DoubleSided {
			gl.Disable(gl.CULL_FACE)
		} else {
			gl.Enable(gl.CULL_FACE)
		}
		m.draw()
	}
	gl.BindVertexArray(0)
	return nil
}

func (m *gpuMesh) draw() {
	gl.BindVertexArray(m.vao)
	if m.indexed {
		gl.DrawElements(gl.TRIANGLES, m.count, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, m.count)
	}
}

// lightSet is a frame's lights packed for the fragment shader.
type lightSet struct {
	ambient [3]float32
	dirs    [maxDirectionalLights][3]float32
	colors  [maxDirectionalLights][3]float32
	count   int32

	// caster indexes the first directional light that casts shadows, or
	// is -1.
	caster    int32
	casterDir math.Vec3
}

// collectLights sums ambient lights and keeps the first
// maxDirectionalLights directional ones. Colors are scaled by intensity.
func collectLights(lights []scene.LightItem) lightSet {
	ls := lightSet{caster: -1}
	for _, l := range lights {
		switch l.Type {
		case scenegraph.LightAmbient:
			for i := range ls.ambient {
				ls.ambient[i] += l.Color[i] * l.Intensity
			}
		case scenegraph.LightDirectional:
			if ls.count == maxDirectionalLights {
				continue
			}
			if l.CastShadow && ls.caster < 0 {
				ls.caster = ls.count
				ls.casterDir = l.Direction
			}
			ls.dirs[ls.count] = l.Direction.Array()
			ls.colors[ls.count] = [3]float32{l.Color[0] * l.Intensity, l.Color[1] * l.Intensity, l.Color[2] * l.Intensity}
			ls.count++
		}
	}
	return ls
}

func (r *Renderer) setLights(ls lightSet) {
	p := r.program
	gl.Uniform3fv(p.Uniform("uAmbient"), 1, &ls.ambient[0])
	gl.Uniform1i(p.Uniform("uLightCount"), ls.count)
	gl.Uniform3fv(p.Uniform("uLightDir"), maxDirectionalLights, &ls.dirs[0][0])
	gl.Uniform3fv(p.Uniform("uLightColor"), maxDirectionalLights, &ls.colors[0][0])
}

// setShadow points the main pass at the shadow map. light is the index of
// the shadowed directional light, -1 for none.
func (r *Renderer) setShadow(light int32) {
	p := r.program
	gl.Uniform1i(p.Uniform("uShadowMap"), shadowUnit)
	gl.Uniform1i(p.Uniform("uShadowLight"), light)
	if light < 0 {
		return
	}
	texel := 1 / float32(r.shadowMap.Resolution)
	gl.Uniform2f(p.Uniform("uShadowTexel"), texel, texel)
	r.shadowMap.BindTexture(gl.TEXTURE0 + shadowUnit)
	gl.ActiveTexture(gl.TEXTURE0)
}

func (r *Renderer) readPixels() []byte {
	if r.width <= 0 || r.height <= 0 {
		return nil
	}
	pixels := make([]byte, r.width*r.height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(r.width), int32(r.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}

// Destroy frees every mesh, the shadow map and the shader programs. Calling
// it again does nothing.
func (r *Renderer) Destroy() {
	logger.Info("closing renderer", zap.Int("meshes", len(r.meshes)))
	for h, m := range r.meshes {
		r.deleteMesh(m)
		delete(r.meshes, h)
	}
	if r.shadowMap != nil {
		r.shadowMap.Destroy()
		r.shadowMap = nil
	}
	if r.depth != nil {
		r.depth.Delete()
		r.depth = nil
	}
	if r.program != nil {
		r.program.Delete()
		r.program = nil
	}
}

func glError() error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("OpenGL error 0x%04x", code)
	}
	return nil
}
