//go:build viewer

package render

import (
	"fmt"
	"sort"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/marchwater/internal/debug"
	"github.com/Faultbox/marchwater/internal/mesh"
)

type gpuMesh struct {
	vao, vbo, ebo uint32
	count         int32
	material      Material
}

func (m *gpuMesh) delete() {
	gl.DeleteVertexArrays(1, &m.vao)
	gl.DeleteBuffers(1, &m.vbo)
	gl.DeleteBuffers(1, &m.ebo)
}

type gpuLines struct {
	vao, vbo uint32
	count    int32
}

// MeshRenderer owns the GL programs and one buffer set per committed surface.
// Every method must be called on the thread that owns the GL context.
type MeshRenderer struct {
	meshProgram    uint32
	uMeshViewProj  int32
	uTint          int32
	uLightDir      int32
	overlayProgram uint32
	uOverlayVP     int32

	meshes map[string]*gpuMesh
	points gpuLines
	lines  gpuLines
	width  int
	height int
	log    *zap.Logger
}

// NewMeshRenderer initialises GL. Call it after the window exists.
func NewMeshRenderer(width, height int, log *zap.Logger) (*MeshRenderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))))

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)

	r := &MeshRenderer{meshes: make(map[string]*gpuMesh), log: log}
	var err error
	if r.meshProgram, err = compileProgram(meshVertexShader, meshFragmentShader); err != nil {
		return nil, fmt.Errorf("mesh program: %w", err)
	}
	r.uMeshViewProj = mustUniform(r.meshProgram, "uViewProj")
	r.uTint = mustUniform(r.meshProgram, "uTint")
	r.uLightDir = mustUniform(r.meshProgram, "uLightDir")

	if r.overlayProgram, err = compileProgram(overlayVertexShader, overlayFragmentShader); err != nil {
		gl.DeleteProgram(r.meshProgram)
		return nil, fmt.Errorf("overlay program: %w", err)
	}
	r.uOverlayVP = mustUniform(r.overlayProgram, "uViewProj")

	r.initLines(&r.points)
	r.initLines(&r.lines)
	r.Resize(width, height)
	return r, nil
}

// Commit uploads a committed mesh, replacing the previous one for name.
func (r *MeshRenderer) Commit(name string, b *mesh.Buffer) {
	r.upload(Stage(name, b))
}

func (r *MeshRenderer) upload(u Upload) {
	m, ok := r.meshes[u.Name]
	if !ok {
		m = &gpuMesh{material: MaterialFor(u.Name)}
		gl.GenVertexArrays(1, &m.vao)
		gl.GenBuffers(1, &m.vbo)
		gl.GenBuffers(1, &m.ebo)

		gl.BindVertexArray(m.vao)
		gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
		stride := int32(mesh.InterleavedStride * 4)
		gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
		gl.EnableVertexAttribArray(0)
		gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
		gl.EnableVertexAttribArray(1)
		gl.VertexAttribPointerWithOffset(2, 4, gl.FLOAT, false, stride, 6*4)
		gl.EnableVertexAttribArray(2)
		r.meshes[u.Name] = m
	}

	gl.BindVertexArray(m.vao)
	m.count = u.IndexCount()
	if m.count > 0 {
		gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
		gl.BufferData(gl.ARRAY_BUFFER, len(u.Vertices)*4, unsafe.Pointer(&u.Vertices[0]), gl.DYNAMIC_DRAW)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(u.Indices)*4, unsafe.Pointer(&u.Indices[0]), gl.DYNAMIC_DRAW)
	}
	gl.BindVertexArray(0)

	r.log.Debug("mesh uploaded",
		zap.String("surface", u.Name),
		zap.Int("vertices", len(u.Vertices)/mesh.InterleavedStride),
		zap.Int32("indices", m.count))
}

func (r *MeshRenderer) initLines(l *gpuLines) {
	gl.GenVertexArrays(1, &l.vao)
	gl.GenBuffers(1, &l.vbo)
	gl.BindVertexArray(l.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, l.vbo)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 6*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, 6*4, 3*4)
	gl.EnableVertexAttribArray(1)
	gl.BindVertexArray(0)
}

func (r *MeshRenderer) fillLines(l *gpuLines, vs []debug.Vertex) {
	l.count = int32(len(vs))
	if l.count == 0 {
		return
	}
	data := debug.Floats(vs)
	gl.BindBuffer(gl.ARRAY_BUFFER, l.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, unsafe.Pointer(&data[0]), gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// SetOverlay replaces the debug points and line segments.
func (r *MeshRenderer) SetOverlay(points, lines []debug.Vertex) {
	r.fillLines(&r.points, points)
	r.fillLines(&r.lines, lines)
}

// Resize handles window resize.
func (r *MeshRenderer) Resize(width, height int) {
	r.width, r.height = width, height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// Aspect returns the viewport aspect ratio.
func (r *MeshRenderer) Aspect() float32 {
	if r.height == 0 {
		return 1
	}
	return float32(r.width) / float32(r.height)
}

// Draw renders opaque surfaces, then translucent ones, then the overlay.
func (r *MeshRenderer) Draw(cam *OrbitCamera, overlay bool) {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	vp := cam.ViewProjection(r.Aspect())
	light := mgl32.Vec3{-0.4, -1, -0.3}.Normalize()

	names := make([]string, 0, len(r.meshes))
	for name := range r.meshes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ai, aj := r.meshes[names[i]].material.Color.W(), r.meshes[names[j]].material.Color.W()
		if ai != aj {
			return ai > aj
		}
		return names[i] < names[j]
	})

	gl.UseProgram(r.meshProgram)
	gl.UniformMatrix4fv(r.uMeshViewProj, 1, false, &vp[0])
	gl.Uniform3fv(r.uLightDir, 1, &light[0])
	for _, name := range names {
		m := r.meshes[name]
		if m.count == 0 {
			continue
		}
		translucent := m.material.Color.W() < 1
		if translucent {
			gl.Enable(gl.BLEND)
			gl.DepthMask(false)
		}
		gl.Uniform4fv(r.uTint, 1, &m.material.Color[0])
		gl.BindVertexArray(m.vao)
		gl.DrawElementsWithOffset(gl.TRIANGLES, m.count, gl.UNSIGNED_INT, 0)
		if translucent {
			gl.DepthMask(true)
			gl.Disable(gl.BLEND)
		}
	}

	if overlay {
		gl.UseProgram(r.overlayProgram)
		gl.UniformMatrix4fv(r.uOverlayVP, 1, false, &vp[0])
		if r.points.count > 0 {
			gl.BindVertexArray(r.points.vao)
			gl.DrawArrays(gl.POINTS, 0, r.points.count)
		}
		if r.lines.count > 0 {
			gl.BindVertexArray(r.lines.vao)
			gl.DrawArrays(gl.LINES, 0, r.lines.count)
		}
	}
	gl.BindVertexArray(0)
}

// Close releases GL resources.
func (r *MeshRenderer) Close() {
	r.log.Info("closing renderer")
	for _, m := range r.meshes {
		m.delete()
	}
	for _, l := range []*gpuLines{&r.points, &r.lines} {
		gl.DeleteVertexArrays(1, &l.vao)
		gl.DeleteBuffers(1, &l.vbo)
	}
	gl.DeleteProgram(r.meshProgram)
	gl.DeleteProgram(r.overlayProgram)
}
