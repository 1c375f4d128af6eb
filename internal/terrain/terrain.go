// Package terrain populates the solid density field water flows over.
package terrain

import (
	"fmt"

	"github.com/Faultbox/marchwater/internal/config"
	"github.com/Faultbox/marchwater/internal/density"
)

// Generator fills a field with terrain densities.
type Generator interface {
	Populate(f *density.Field)
	Name() string
}

// Plane is a flat floor: every sample at or below Height is solid.
type Plane struct {
	Height float64
}

// Name returns "plane".
func (Plane) Name() string { return "plane" }

// Populate fills the field.
func (p Plane) Populate(f *density.Field) {
	n := f.Size()
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			var v float32
			if float64(y) <= p.Height {
				v = 1
			}
			for x := 0; x < n; x++ {
				f.Set(x, y, z, v)
			}
		}
	}
}

// FromConfig builds the generator named by cfg.Kind for an n^3 grid.
func FromConfig(cfg config.TerrainConfig, n int) (Generator, error) {
	switch cfg.Kind {
	case "plane":
		return Plane{Height: cfg.Height}, nil
	case "basin":
		return NewBasin(n, cfg.Height, cfg.Radius)
	case "noise":
		return NewNoise(cfg.Seed, cfg.Height, cfg.Scale, cfg.Amplitude), nil
	default:
		return nil, fmt.Errorf("unknown terrain kind %q", cfg.Kind)
	}
}

// clamp01 maps a signed distance style value into density range.
func clamp01(v float64) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return float32(v)
	}
}
