// Package march extracts iso-surfaces from density grids with Marching Cubes.
package march

import (
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultIsoValue is the density threshold used when none is configured.
const DefaultIsoValue float32 = 0.5

// degenerateEpsilon bounds |vb - va| below which an edge is treated as flat.
const degenerateEpsilon = 1e-6

// White is the placeholder color given to every extracted triangle.
var White = mgl32.Vec4{1, 1, 1, 1}

// Sampler is the read side of a density grid.
type Sampler interface {
	// Size returns the number of points per axis.
	Size() int
	// Get returns the density at a grid point.
	Get(x, y, z int) float32
}

// Triangle is one face of the extracted surface.
type Triangle struct {
	Vertices [3]mgl32.Vec3
	Color    mgl32.Vec4
}

// Normal returns the unnormalised face normal (twice the area).
func (t Triangle) Normal() mgl32.Vec3 {
	return t.Vertices[1].Sub(t.Vertices[0]).Cross(t.Vertices[2].Sub(t.Vertices[0]))
}

// corner is a cube corner sampled on demand.
type corner struct {
	pos   mgl32.Vec3
	value float32
}

// Extract walks every unit cube of the (N-1)³ lattice and returns the
// triangles of the surface where density crosses iso. Normals of the
// returned faces point from dense to empty space.
func Extract(s Sampler, iso float32) []Triangle {
	n := s.Size()
	if n < 2 {
		return nil
	}

	var tris []Triangle
	var corners [8]corner
	var edgeVerts [12]mgl32.Vec3

	for z := 0; z < n-1; z++ {
		for y := 0; y < n-1; y++ {
			for x := 0; x < n-1; x++ {
				var config uint8
				for i, off := range cornerOffsets {
					cx, cy, cz := x+off[0], y+off[1], z+off[2]
					v := s.Get(cx, cy, cz)
					corners[i] = corner{
						pos:   mgl32.Vec3{float32(cx), float32(cy), float32(cz)},
						value: v,
					}
					if v > iso {
						config |= 1 << i
					}
				}

				edges := edgeTable[config]
				if edges == 0 {
					continue
				}
				for e := 0; e < 12; e++ {
					if edges&(1<<e) == 0 {
						continue
					}
					a, b := corners[edgeCorners[e][0]], corners[edgeCorners[e][1]]
					edgeVerts[e] = interpolate(a, b, iso)
				}

				row := &triTable[config]
				for i := 0; row[i] != -1; i += 3 {
					tris = append(tris, Triangle{
						Vertices: [3]mgl32.Vec3{
							edgeVerts[row[i]],
							edgeVerts[row[i+1]],
							edgeVerts[row[i+2]],
						},
						Color: White,
					})
				}
			}
		}
	}
	return tris
}

// Config returns the 8-bit corner mask of the cube whose origin is (x, y, z).
// Bit i is set when corner i is denser than iso.
func Config(s Sampler, x, y, z int, iso float32) uint8 {
	var config uint8
	for i, off := range cornerOffsets {
		if s.Get(x+off[0], y+off[1], z+off[2]) > iso {
			config |= 1 << i
		}
	}
	return config
}

// CornerOffsets returns the cube corner offsets in mask bit order.
func CornerOffsets() [8][3]int { return cornerOffsets }

// EdgeMask returns the edges crossed by the surface for a configuration.
func EdgeMask(config uint8) uint16 { return edgeTable[config] }

// TriangleCount returns how many triangles a configuration produces.
func TriangleCount(config uint8) int {
	row := &triTable[config]
	n := 0
	for row[n] != -1 {
		n += 3
	}
	return n / 3
}

// interpolate places the crossing point on edge a-b. A flat edge
// (va == vb) cannot be crossed meaningfully, so it resolves to a.
func interpolate(a, b corner, iso float32) mgl32.Vec3 {
	d := b.value - a.value
	if d < degenerateEpsilon && d > -degenerateEpsilon {
		return a.pos
	}
	t := (iso - a.value) / d
	return a.pos.Add(b.pos.Sub(a.pos).Mul(t))
}
