package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/marchwater/internal/mesh"
)

// TerrainKinds lists the accepted terrain.kind values.
var TerrainKinds = []string{"plane", "basin", "noise"}

// Params is the immutable set of constants the simulation is built from.
// It is passed by value at construction.
type Params struct {
	PointsPerAxis  int
	IsoValue       float32
	Damping        float32
	TickRateHz     float64
	Seed           [3]int
	TerrainShading mesh.Shading
	WaterShading   mesh.Shading
	MaxTicks       int
	Workers        int
	QueueSize      int
}

// CubesPerAxis is the number of marching cubes along each axis.
func (p Params) CubesPerAxis() int { return p.PointsPerAxis - 1 }

// Validate reports every setting that cannot produce a working simulation.
func (c *Config) Validate() error {
	var errs []error
	n := c.Volume.PointsPerAxis
	if n < 2 {
		errs = append(errs, fmt.Errorf("volume.points_per_axis must be at least 2, got %d", n))
	}
	if iso := c.Volume.IsoValue; iso <= 0 || iso >= 1 {
		errs = append(errs, fmt.Errorf("volume.iso_value must be in (0,1), got %v", iso))
	}
	if c.Simulation.Damping <= 0 {
		errs = append(errs, fmt.Errorf("simulation.damping must be positive, got %v", c.Simulation.Damping))
	}
	if c.Simulation.TickRateHz <= 0 {
		errs = append(errs, fmt.Errorf("simulation.tick_rate_hz must be positive, got %v", c.Simulation.TickRateHz))
	}
	if c.Simulation.MaxTicks < 0 {
		errs = append(errs, fmt.Errorf("simulation.max_ticks must not be negative, got %d", c.Simulation.MaxTicks))
	}
	if seed := c.Simulation.Seed; len(seed) != 0 {
		if len(seed) != 3 {
			errs = append(errs, fmt.Errorf("simulation.seed needs 3 coordinates, got %d", len(seed)))
		} else {
			for _, v := range seed {
				if v < 0 || v >= n {
					errs = append(errs, fmt.Errorf("simulation.seed %v outside the %d^3 grid", seed, n))
					break
				}
			}
		}
	}
	if _, err := mesh.ParseShading(c.Mesh.TerrainShading); err != nil {
		errs = append(errs, fmt.Errorf("mesh.terrain_shading: %w", err))
	}
	if _, err := mesh.ParseShading(c.Mesh.WaterShading); err != nil {
		errs = append(errs, fmt.Errorf("mesh.water_shading: %w", err))
	}
	if !knownTerrain(c.Terrain.Kind) {
		errs = append(errs, fmt.Errorf("terrain.kind %q is not one of %v", c.Terrain.Kind, TerrainKinds))
	}
	return errors.Join(errs...)
}

func knownTerrain(kind string) bool {
	for _, k := range TerrainKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Params validates the config and freezes it.
func (c *Config) Params() (Params, error) {
	if err := c.Validate(); err != nil {
		return Params{}, err
	}
	terrainShading, _ := mesh.ParseShading(c.Mesh.TerrainShading)
	waterShading, _ := mesh.ParseShading(c.Mesh.WaterShading)

	n := c.Volume.PointsPerAxis
	seed := [3]int{n / 2, max(n-2, 0), n / 2}
	if len(c.Simulation.Seed) == 3 {
		copy(seed[:], c.Simulation.Seed)
	}

	return Params{
		PointsPerAxis:  n,
		IsoValue:       c.Volume.IsoValue,
		Damping:        c.Simulation.Damping,
		TickRateHz:     c.Simulation.TickRateHz,
		Seed:           seed,
		TerrainShading: terrainShading,
		WaterShading:   waterShading,
		MaxTicks:       c.Simulation.MaxTicks,
		Workers:        c.Pipeline.Workers,
		QueueSize:      c.Pipeline.QueueSize,
	}, nil
}
