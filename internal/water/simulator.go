// Package water advances a water density field by one cellular diffusion
// tick at a time. Water spreads sideways and downward into cells the
// terrain leaves open, and never moves up.
package water

import (
	"go.uber.org/zap"

	"github.com/Faultbox/marchwater/internal/density"
)

// DefaultDamping divides every transfer. Higher values spread water slower.
const DefaultDamping = 17

// Terrain is the read-only view of the solid field the water flows around.
type Terrain interface {
	Get(x, y, z int) float32
}

// Cell is a grid coordinate.
type Cell struct {
	X, Y, Z int
}

// DefaultSeed returns the cell seeded with water on the first tick: the
// horizontal center, one row below the top.
func DefaultSeed(n int) Cell {
	y := n - 2
	if y < 0 {
		y = 0
	}
	return Cell{X: n / 2, Y: y, Z: n / 2}
}

// TickReport summarises one Step.
type TickReport struct {
	Tick       uint64
	Seeded     bool
	MassBefore float64
	MassAfter  float64
}

// MassDelta is the mass created (positive) or destroyed by the tick.
// The transfer rule does not conserve mass exactly.
func (r TickReport) MassDelta() float64 { return r.MassAfter - r.MassBefore }

// Simulator owns the water field and reads the terrain field.
type Simulator struct {
	water   *density.Field
	terrain Terrain
	damping float32
	seed    Cell
	tick    uint64
	log     *zap.Logger
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithDamping overrides DefaultDamping. Non-positive values are ignored.
func WithDamping(d float32) Option {
	return func(s *Simulator) {
		if d > 0 {
			s.damping = d
		}
	}
}

// WithSeed overrides the seed cell.
func WithSeed(c Cell) Option {
	return func(s *Simulator) { s.seed = c }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Simulator) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a simulator over the given fields. The terrain is never
// written.
func New(water *density.Field, terrain Terrain, opts ...Option) *Simulator {
	s := &Simulator{
		water:   water,
		terrain: terrain,
		damping: DefaultDamping,
		seed:    DefaultSeed(water.Size()),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Field returns the water field.
func (s *Simulator) Field() *density.Field { return s.water }

// Ticks returns the number of completed steps.
func (s *Simulator) Ticks() uint64 { return s.tick }

// Seed returns the seed cell.
func (s *Simulator) Seed() Cell { return s.seed }

// Step advances the field by one tick. Updates happen in place in x, y, z
// order, so cells later in the sweep see water that moved earlier in the
// same tick. The bottom row is never a source.
func (s *Simulator) Step() TickReport {
	report := TickReport{Tick: s.tick + 1}

	if !s.water.Generated() {
		s.water.Clear()
		s.water.Set(s.seed.X, s.seed.Y, s.seed.Z, 1)
		s.water.MarkGenerated()
		report.Seeded = true
		s.log.Debug("seeded water",
			zap.Int("x", s.seed.X), zap.Int("y", s.seed.Y), zap.Int("z", s.seed.Z))
	}
	report.MassBefore = s.water.Mass()

	n := s.water.Size()
	for x := 0; x < n; x++ {
		for y := 1; y < n; y++ {
			for z := 0; z < n; z++ {
				s.spread(x, y, z)
			}
		}
	}

	s.tick++
	report.MassAfter = s.water.Mass()
	return report
}

// spread pushes water from one cell into its open neighbors below and
// beside it, then removes what the neighbors absorbed.
func (s *Simulator) spread(x, y, z int) {
	current := s.water.Get(x, y, z)
	var absorbed float32

	for i := -1; i <= 1; i++ {
		for j := -1; j <= 0; j++ {
			for k := -1; k <= 1; k++ {
				if i == 0 && j == 0 && k == 0 {
					continue
				}
				nx, ny, nz := x+i, y+j, z+k
				open := 1 - s.terrain.Get(nx, ny, nz)
				transfer := current * float32(1-j) / s.damping * open
				old := s.water.Get(nx, ny, nz)
				s.water.Set(nx, ny, nz, transfer+old*open)
				absorbed += min(1-old, transfer)
			}
		}
	}

	s.water.Set(x, y, z, s.water.Get(x, y, z)-absorbed)
}
