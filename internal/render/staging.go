package render

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/marchwater/internal/mesh"
)

// Upload is a mesh flattened for a GPU buffer upload.
type Upload struct {
	Name     string
	Vertices []float32 // mesh.InterleavedStride floats per vertex
	Indices  []uint32
	Bounds   mesh.Bounds
}

// Stage flattens a committed buffer. A nil or empty buffer stages as empty.
func Stage(name string, b *mesh.Buffer) Upload {
	if b.IsEmpty() {
		return Upload{Name: name}
	}
	return Upload{
		Name:     name,
		Vertices: b.Interleaved(),
		Indices:  b.Indices,
		Bounds:   b.Bounds,
	}
}

// IndexCount returns the number of indices to draw.
func (u Upload) IndexCount() int32 { return int32(len(u.Indices)) }

// Material is the per-surface tint applied in the shader.
type Material struct {
	Color mgl32.Vec4
}

// Materials maps surface names to their tint. Unknown surfaces draw white.
var Materials = map[string]Material{
	"terrain": {Color: mgl32.Vec4{0.62, 0.52, 0.38, 1}},
	"water":   {Color: mgl32.Vec4{0.2, 0.45, 0.9, 0.65}},
}

// MaterialFor returns the tint for a surface.
func MaterialFor(name string) Material {
	if m, ok := Materials[name]; ok {
		return m
	}
	return Material{Color: mgl32.Vec4{1, 1, 1, 1}}
}
