// Package mesh assembles extracted triangles into indexed vertex buffers
// ready for upload to a render or collision collaborator.
package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Shading selects how triangles share vertices.
type Shading int

const (
	// Flat gives every triangle its own three vertices (faceted normals).
	Flat Shading = iota
	// Smooth welds vertices at identical positions (averaged normals).
	Smooth
)

// String returns the config name of the shading mode.
func (s Shading) String() string {
	switch s {
	case Flat:
		return "flat"
	case Smooth:
		return "smooth"
	default:
		return fmt.Sprintf("Shading(%d)", int(s))
	}
}

// Weld reports whether the mode shares vertices.
func (s Shading) Weld() bool { return s == Smooth }

// ParseShading converts a config string to a Shading.
func ParseShading(name string) (Shading, error) {
	switch name {
	case "flat":
		return Flat, nil
	case "smooth", "welded":
		return Smooth, nil
	default:
		return Flat, fmt.Errorf("unknown shading %q (want flat or smooth)", name)
	}
}

// Bounds holds the axis-aligned bounding box of a buffer.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Center returns the midpoint of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Buffer is the committed mesh artifact. Positions, Normals and Colors are
// indexed in parallel; Indices reference them in triangle triples.
type Buffer struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Colors    []mgl32.Vec4
	Indices   []uint32
	Bounds    Bounds
}

// VertexCount returns the number of vertices.
func (b *Buffer) VertexCount() int {
	if b == nil {
		return 0
	}
	return len(b.Positions)
}

// TriangleCount returns the number of triangles.
func (b *Buffer) TriangleCount() int {
	if b == nil {
		return 0
	}
	return len(b.Indices) / 3
}

// IsEmpty returns true if the buffer has no geometry.
func (b *Buffer) IsEmpty() bool {
	return b == nil || len(b.Indices) == 0
}

// InterleavedStride is the number of floats per vertex in Interleaved output.
const InterleavedStride = 10

// Interleaved flattens the vertex attributes as
// [x y z nx ny nz r g b a] per vertex for GPU upload.
func (b *Buffer) Interleaved() []float32 {
	out := make([]float32, 0, len(b.Positions)*InterleavedStride)
	for i, p := range b.Positions {
		var n mgl32.Vec3
		if i < len(b.Normals) {
			n = b.Normals[i]
		}
		c := b.Colors[i]
		out = append(out, p[0], p[1], p[2], n[0], n[1], n[2], c[0], c[1], c[2], c[3])
	}
	return out
}

func (b *Buffer) computeBounds() {
	if len(b.Positions) == 0 {
		b.Bounds = Bounds{}
		return
	}
	bounds := Bounds{Min: b.Positions[0], Max: b.Positions[0]}
	for _, p := range b.Positions[1:] {
		updateBounds(&bounds, p)
	}
	b.Bounds = bounds
}

func updateBounds(b *Bounds, p mgl32.Vec3) {
	for axis := 0; axis < 3; axis++ {
		if p[axis] < b.Min[axis] {
			b.Min[axis] = p[axis]
		}
		if p[axis] > b.Max[axis] {
			b.Max[axis] = p[axis]
		}
	}
}
