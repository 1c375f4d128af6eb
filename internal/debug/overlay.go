// Package debug provides read-only visualisation of density fields.
package debug

import (
	"github.com/Faultbox/marchwater/internal/march"
)

// Vertex is a colored point or line end for overlay rendering.
type Vertex struct {
	X, Y, Z float32 // Position
	R, G, B float32 // Color
}

// Floats flattens vertices as [x y z r g b] per vertex.
func Floats(vs []Vertex) []float32 {
	out := make([]float32, 0, len(vs)*6)
	for _, v := range vs {
		out = append(out, v.X, v.Y, v.Z, v.R, v.G, v.B)
	}
	return out
}

// Overlay builds debug geometry for one field.
type Overlay struct {
	field march.Sampler
	iso   float32
	// Tint is multiplied into every point color.
	Tint [3]float32
}

// NewOverlay creates an overlay for a field at the given iso value.
func NewOverlay(field march.Sampler, iso float32) *Overlay {
	if field == nil {
		return nil
	}
	return &Overlay{field: field, iso: iso, Tint: [3]float32{1, 1, 1}}
}

// Points returns one point per sample whose density exceeds threshold,
// shaded from dark (threshold) to bright (1).
func (o *Overlay) Points(threshold float32) []Vertex {
	if o == nil {
		return nil
	}
	n := o.field.Size()
	var vertices []Vertex
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				v := o.field.Get(x, y, z)
				if v <= threshold {
					continue
				}
				shade := 0.25 + 0.75*v
				vertices = append(vertices, Vertex{
					float32(x), float32(y), float32(z),
					shade * o.Tint[0], shade * o.Tint[1], shade * o.Tint[2],
				})
			}
		}
	}
	return vertices
}

// Bounds returns line vertices (pairs) outlining the field's lattice cube.
func (o *Overlay) Bounds() []Vertex {
	if o == nil {
		return nil
	}
	m := float32(o.field.Size() - 1)
	gray := [3]float32{0.5, 0.5, 0.5}
	corners := [8][3]float32{
		{0, 0, 0}, {m, 0, 0}, {m, 0, m}, {0, 0, m},
		{0, m, 0}, {m, m, 0}, {m, m, m}, {0, m, m},
	}
	edges := [12][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
		{4, 5}, {5, 6}, {6, 7}, {7, 4},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
	vertices := make([]Vertex, 0, 24)
	for _, e := range edges {
		for _, c := range e {
			p := corners[c]
			vertices = append(vertices, Vertex{p[0], p[1], p[2], gray[0], gray[1], gray[2]})
		}
	}
	return vertices
}

// SurfaceCells returns one point at the center of every cube the surface
// passes through, colored by how many triangles the cube emits.
func (o *Overlay) SurfaceCells() []Vertex {
	if o == nil {
		return nil
	}
	n := o.field.Size()
	var vertices []Vertex
	for z := 0; z+1 < n; z++ {
		for y := 0; y+1 < n; y++ {
			for x := 0; x+1 < n; x++ {
				config := march.Config(o.field, x, y, z, o.iso)
				tris := march.TriangleCount(config)
				if tris == 0 {
					continue
				}
				color := triangleCountColor(tris)
				vertices = append(vertices, Vertex{
					float32(x) + 0.5, float32(y) + 0.5, float32(z) + 0.5,
					color[0], color[1], color[2],
				})
			}
		}
	}
	return vertices
}

// triangleCountColor returns a color for a cube's triangle count (1 to 5).
func triangleCountColor(n int) [3]float32 {
	switch n {
	case 1:
		return [3]float32{0.0, 0.5, 0.0} // Green
	case 2:
		return [3]float32{0.0, 0.3, 0.6} // Blue
	case 3:
		return [3]float32{0.5, 0.5, 0.0} // Yellow
	case 4:
		return [3]float32{0.5, 0.3, 0.0} // Orange
	default:
		return [3]float32{0.5, 0.0, 0.0} // Red
	}
}

// CellInfo describes one cube of the lattice.
type CellInfo struct {
	X, Y, Z   int
	Config    uint8
	Corners   [8]float32
	Triangles int
}

// Inspect returns information about the cube whose minimum corner is
// (x, y, z), or nil if the cube is outside the lattice.
func (o *Overlay) Inspect(x, y, z int) *CellInfo {
	if o == nil {
		return nil
	}
	n := o.field.Size()
	if x < 0 || y < 0 || z < 0 || x+1 >= n || y+1 >= n || z+1 >= n {
		return nil
	}
	info := &CellInfo{X: x, Y: y, Z: z, Config: march.Config(o.field, x, y, z, o.iso)}
	for i, c := range march.CornerOffsets() {
		info.Corners[i] = o.field.Get(x+c[0], y+c[1], z+c[2])
	}
	info.Triangles = march.TriangleCount(info.Config)
	return info
}
