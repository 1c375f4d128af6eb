package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/marchwater/internal/march"
)

// Assemble converts a triangle list into an indexed buffer.
//
// With weld=false every triangle gets three fresh vertices. With weld=true
// vertices at exactly the same position share one slot; the slot keeps the
// color of the triangle that inserted it first (colors are not averaged).
//
// Normals are recomputed and the buffer is reordered for vertex cache
// locality before it is returned.
func Assemble(tris []march.Triangle, weld bool) *Buffer {
	b := &Buffer{
		Indices: make([]uint32, 0, len(tris)*3),
	}

	if weld {
		lookup := make(map[mgl32.Vec3]uint32, len(tris)*3/2)
		for _, tri := range tris {
			for _, p := range tri.Vertices {
				idx, ok := lookup[p]
				if !ok {
					idx = uint32(len(b.Positions))
					lookup[p] = idx
					b.Positions = append(b.Positions, p)
					b.Colors = append(b.Colors, tri.Color)
				}
				b.Indices = append(b.Indices, idx)
			}
		}
	} else {
		b.Positions = make([]mgl32.Vec3, 0, len(tris)*3)
		b.Colors = make([]mgl32.Vec4, 0, len(tris)*3)
		for _, tri := range tris {
			for _, p := range tri.Vertices {
				b.Indices = append(b.Indices, uint32(len(b.Positions)))
				b.Positions = append(b.Positions, p)
				b.Colors = append(b.Colors, tri.Color)
			}
		}
	}

	RecomputeNormals(b)
	Optimize(b)
	b.computeBounds()
	return b
}

// AssembleShaded is Assemble driven by a Shading mode.
func AssembleShaded(tris []march.Triangle, s Shading) *Buffer {
	return Assemble(tris, s.Weld())
}
