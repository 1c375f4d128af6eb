package terrain

import (
	"github.com/ojrac/opensimplex-go"

	"github.com/Faultbox/marchwater/internal/density"
)

// Noise is rolling terrain: a vertical gradient around Height perturbed by
// 3D simplex noise, so overhangs and pockets can form.
type Noise struct {
	noise     opensimplex.Noise
	height    float64
	scale     float64
	amplitude float64
}

// NewNoise creates a noise generator. Scale is the sampling frequency per
// grid unit and amplitude the noise contribution in grid units.
func NewNoise(seed int64, height, scale, amplitude float64) *Noise {
	if scale <= 0 {
		scale = 0.15
	}
	return &Noise{
		noise:     opensimplex.New(seed),
		height:    height,
		scale:     scale,
		amplitude: amplitude,
	}
}

// Name returns "noise".
func (*Noise) Name() string { return "noise" }

// Sample returns the density at a grid point before clamping.
func (g *Noise) Sample(x, y, z float64) float64 {
	n := g.noise.Eval3(x*g.scale, y*g.scale, z*g.scale)
	return 0.5 + (g.height - y) + n*g.amplitude*4
}

// Populate fills the field.
func (g *Noise) Populate(f *density.Field) {
	n := f.Size()
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				f.Set(x, y, z, clamp01(g.Sample(float64(x), float64(y), float64(z))))
			}
		}
	}
}
