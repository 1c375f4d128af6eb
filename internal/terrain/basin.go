package terrain

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/Faultbox/marchwater/internal/density"
)

// Basin is a solid slab with a spherical bowl carved into its top face, a
// natural container for the water seed to pool in.
type Basin struct {
	solid sdf.SDF3
}

// NewBasin builds a basin for an n^3 grid. height is the slab's top face in
// grid units; radius is the bowl radius as a fraction of the grid extent.
func NewBasin(n int, height, radius float64) (*Basin, error) {
	extent := float64(n - 1)
	if height <= 0 || height > extent {
		return nil, fmt.Errorf("basin height %v outside (0,%v]", height, extent)
	}
	if radius <= 0 {
		return nil, fmt.Errorf("basin radius must be positive, got %v", radius)
	}

	// The slab overhangs the grid by one unit so its sides never show.
	slab, err := sdf.Box3D(v3.Vec{X: extent + 2, Y: height + 1, Z: extent + 2}, 0)
	if err != nil {
		return nil, fmt.Errorf("basin slab: %w", err)
	}
	slab = sdf.Transform3D(slab, sdf.Translate3d(v3.Vec{X: extent / 2, Y: (height - 1) / 2, Z: extent / 2}))

	bowl, err := sdf.Sphere3D(radius * extent)
	if err != nil {
		return nil, fmt.Errorf("basin bowl: %w", err)
	}
	bowl = sdf.Transform3D(bowl, sdf.Translate3d(v3.Vec{X: extent / 2, Y: height, Z: extent / 2}))

	return &Basin{solid: sdf.Difference3D(slab, bowl)}, nil
}

// Name returns "basin".
func (*Basin) Name() string { return "basin" }

// Distance returns the signed distance to the basin surface at a grid
// point, negative inside the solid.
func (b *Basin) Distance(x, y, z float64) float64 {
	return b.solid.Evaluate(v3.Vec{X: x, Y: y, Z: z})
}

// Populate fills the field so the zero set of the distance lands on iso 0.5.
func (b *Basin) Populate(f *density.Field) {
	n := f.Size()
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				d := b.Distance(float64(x), float64(y), float64(z))
				f.Set(x, y, z, clamp01(0.5-d))
			}
		}
	}
}
