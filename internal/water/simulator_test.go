package water

import (
	"math/rand/v2"
	"testing"

	"github.com/Faultbox/marchwater/internal/density"
)

func openTerrain(n int) *density.Field {
	return density.New(n) // all zero: nothing solid inside the grid
}

func floorTerrain(n, height int) *density.Field {
	f := density.New(n)
	for z := 0; z < n; z++ {
		for y := 0; y <= height && y < n; y++ {
			for x := 0; x < n; x++ {
				f.Set(x, y, z, 1)
			}
		}
	}
	return f
}

func TestDefaultSeed(t *testing.T) {
	tests := []struct {
		n    int
		want Cell
	}{
		{5, Cell{2, 3, 2}},
		{16, Cell{8, 14, 8}},
		{2, Cell{1, 0, 1}},
		{1, Cell{0, 0, 0}},
	}
	for _, tt := range tests {
		if got := DefaultSeed(tt.n); got != tt.want {
			t.Errorf("DefaultSeed(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestFirstStepSeeds(t *testing.T) {
	water := density.New(5)
	sim := New(water, openTerrain(5))

	r := sim.Step()
	if !r.Seeded || r.Tick != 1 {
		t.Errorf("Step() = %+v, want seeded tick 1", r)
	}
	if !water.Generated() {
		t.Error("water field not marked generated")
	}
	if r.MassBefore != 1 {
		t.Errorf("MassBefore = %v, want 1", r.MassBefore)
	}
	// Two parts in damping flow straight down from the seed.
	if got := water.Get(2, 2, 2); got < 2.0/DefaultDamping-1e-6 {
		t.Errorf("water below seed = %v, want >= %v", got, 2.0/DefaultDamping)
	}

	if r := sim.Step(); r.Seeded {
		t.Error("second Step() seeded again")
	}
	if sim.Ticks() != 2 {
		t.Errorf("Ticks() = %d, want 2", sim.Ticks())
	}
}

func TestInvalidateReseeds(t *testing.T) {
	water := density.New(5)
	sim := New(water, openTerrain(5))
	sim.Step()
	sim.Step()

	water.Invalidate()
	if r := sim.Step(); !r.Seeded || r.MassBefore != 1 {
		t.Errorf("Step() after Invalidate = %+v, want reseeded with mass 1", r)
	}
}

func TestWaterNeverRises(t *testing.T) {
	const n = 6
	water := density.New(n)
	sim := New(water, openTerrain(n))
	for i := 0; i < 10; i++ {
		sim.Step()
	}
	seed := sim.Seed()
	for y := seed.Y + 1; y < n; y++ {
		for z := 0; z < n; z++ {
			for x := 0; x < n; x++ {
				if v := water.Get(x, y, z); v != 0 {
					t.Fatalf("water %v at (%d,%d,%d) above seed row %d", v, x, y, z, seed.Y)
				}
			}
		}
	}
}

func TestWaterStaysOutOfTerrain(t *testing.T) {
	const n = 6
	terrain := floorTerrain(n, 1)
	water := density.New(n)
	sim := New(water, terrain)
	for i := 0; i < 20; i++ {
		sim.Step()
	}
	for z := 0; z < n; z++ {
		for y := 0; y <= 1; y++ {
			for x := 0; x < n; x++ {
				if v := water.Get(x, y, z); v != 0 {
					t.Fatalf("water %v inside terrain at (%d,%d,%d)", v, x, y, z)
				}
			}
		}
	}
	if water.Mass() == 0 {
		t.Error("all water vanished above an open floor")
	}
}

func TestTerrainIsReadOnly(t *testing.T) {
	const n = 5
	terrain := floorTerrain(n, 2)
	before := terrain.Clone()
	sim := New(density.New(n), terrain)
	for i := 0; i < 5; i++ {
		sim.Step()
	}
	for i, v := range terrain.Values() {
		if v != before.Values()[i] {
			t.Fatalf("terrain sample %d changed from %v to %v", i, before.Values()[i], v)
		}
	}
}

func TestStepKeepsValuesInRange(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		rng := rand.New(rand.NewPCG(seed, 99))
		const n = 7
		water := density.New(n)
		terrain := density.New(n)
		for i := range water.Values() {
			water.Values()[i] = rng.Float32()
			terrain.Values()[i] = rng.Float32()
		}
		water.MarkGenerated()

		sim := New(water, terrain, WithDamping(3))
		for tick := 0; tick < 3; tick++ {
			sim.Step()
			for i, v := range water.Values() {
				if v < 0 || v > 1 {
					t.Fatalf("seed %d tick %d: sample %d = %v outside [0,1]", seed, tick, i, v)
				}
			}
		}
	}
}

func TestStepIsDeterministic(t *testing.T) {
	const n = 6
	terrain := floorTerrain(n, 1)
	a, b := density.New(n), density.New(n)
	simA, simB := New(a, terrain), New(b, terrain)
	for i := 0; i < 8; i++ {
		ra, rb := simA.Step(), simB.Step()
		if ra != rb {
			t.Fatalf("tick %d reports differ: %+v vs %+v", i, ra, rb)
		}
	}
	for i := range a.Values() {
		if a.Values()[i] != b.Values()[i] {
			t.Fatalf("sample %d differs", i)
		}
	}
}

func TestOptions(t *testing.T) {
	water := density.New(8)
	sim := New(water, openTerrain(8), WithDamping(-1), WithSeed(Cell{1, 6, 1}), WithLogger(nil))
	if sim.damping != DefaultDamping {
		t.Errorf("damping = %v, want default %v", sim.damping, DefaultDamping)
	}
	sim.Step()
	if got := sim.Seed(); got != (Cell{1, 6, 1}) {
		t.Errorf("Seed() = %v, want {1 6 1}", got)
	}
	if water.Get(1, 5, 1) == 0 {
		t.Error("no water below the custom seed")
	}
}

func TestMassDelta(t *testing.T) {
	r := TickReport{MassBefore: 1, MassAfter: 1.5}
	if got := r.MassDelta(); got != 0.5 {
		t.Errorf("MassDelta() = %v, want 0.5", got)
	}
}

func TestSpreadGolden(t *testing.T) {
	const d float32 = DefaultDamping
	src := Cell{2, 2, 2}
	below := func(i, k int) Cell { return Cell{2 + i, 1, 2 + k} }
	beside := func(i, k int) Cell { return Cell{2 + i, 2, 2 + k} }

	tests := []struct {
		name    string
		terrain func() *density.Field
		preset  map[Cell]float32
		want    map[Cell]float32
		mass    float64
	}{
		{
			// 9 cells below take 2/d each, 8 beside take 1/d. The source
			// loses 26/d and clamps to 0, so mass grows to 26/d.
			name:    "open",
			terrain: func() *density.Field { return openTerrain(5) },
			want: map[Cell]float32{
				src:           0,
				below(0, 0):   2 / d,
				below(-1, 1):  2 / d,
				beside(1, 0):  1 / d,
				beside(-1, 1): 1 / d,
				{2, 3, 2}:     0,
			},
			mass: 26.0 / DefaultDamping,
		},
		{
			// A solid floor takes nothing; only the 8 cells beside fill.
			name:    "on floor",
			terrain: func() *density.Field { return floorTerrain(5, 1) },
			want: map[Cell]float32{
				src:          1 - 8/d,
				below(0, 0):  0,
				beside(0, 1): 1 / d,
			},
			mass: 1,
		},
		{
			// Half-solid terrain below halves the transfer and the water
			// already there: 2/d*0.5 + 0.4*0.5.
			name: "half occluded below",
			terrain: func() *density.Field {
				f := openTerrain(5)
				f.Set(2, 1, 2, 0.5)
				return f
			},
			preset: map[Cell]float32{below(0, 0): 0.4},
			want: map[Cell]float32{
				below(0, 0): 1/d + 0.2,
				below(1, 0): 2 / d,
				src:         0,
			},
		},
		{
			// A nearly full neighbor clamps to 1 and only counts its free
			// space as absorbed.
			name:    "saturated neighbor",
			terrain: func() *density.Field { return floorTerrain(5, 1) },
			preset:  map[Cell]float32{beside(1, 0): 0.99},
			want: map[Cell]float32{
				beside(1, 0): 1,
				beside(0, 1): 1 / d,
				src:          1 - 7/d - 0.01,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			water := density.New(5)
			water.Set(src.X, src.Y, src.Z, 1)
			for c, v := range tt.preset {
				water.Set(c.X, c.Y, c.Z, v)
			}
			sim := New(water, tt.terrain())
			sim.spread(src.X, src.Y, src.Z)

			for c, want := range tt.want {
				if got := water.Get(c.X, c.Y, c.Z); !approx(got, want) {
					t.Errorf("water%v = %v, want %v", c, got, want)
				}
			}
			if tt.mass != 0 {
				if got := water.Mass(); !approx(float32(got), float32(tt.mass)) {
					t.Errorf("Mass() = %v, want %v", got, tt.mass)
				}
			}
		})
	}
}

func approx(a, b float32) bool {
	diff := a - b
	return diff < 1e-5 && diff > -1e-5
}
