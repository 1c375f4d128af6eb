package march

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/marchwater/internal/density"
)

func approx(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-5 }

func TestUniformFieldsProduceNothing(t *testing.T) {
	tests := []struct {
		name  string
		value float32
	}{
		{"all below iso (config 0)", 0.2},
		{"all above iso (config 255)", 0.8},
		{"exactly iso", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := density.New(2)
			f.Fill(tt.value)
			if got := Extract(f, DefaultIsoValue); len(got) != 0 {
				t.Errorf("Extract() = %d triangles, want 0", len(got))
			}
		})
	}
}

func TestEmptyTableEntries(t *testing.T) {
	if TriangleCount(0) != 0 || TriangleCount(255) != 0 {
		t.Errorf("TriangleCount(0)=%d TriangleCount(255)=%d, want 0", TriangleCount(0), TriangleCount(255))
	}
	if EdgeMask(0) != 0 || EdgeMask(255) != 0 {
		t.Error("edge masks for empty configurations should be zero")
	}
}

func TestSingleAxisStepBisectsCube(t *testing.T) {
	for axis := 0; axis < 3; axis++ {
		f := density.New(2)
		for z := 0; z < 2; z++ {
			for y := 0; y < 2; y++ {
				for x := 0; x < 2; x++ {
					c := [3]int{x, y, z}
					if c[axis] == 0 {
						f.Set(x, y, z, 1)
					}
				}
			}
		}

		tris := Extract(f, DefaultIsoValue)
		if len(tris) != 2 {
			t.Fatalf("axis %d: Extract() = %d triangles, want 2", axis, len(tris))
		}
		for _, tri := range tris {
			for _, v := range tri.Vertices {
				if !approx(v[axis], 0.5) {
					t.Errorf("axis %d: vertex %v not on midpoint plane", axis, v)
				}
			}
			n := tri.Normal().Normalize()
			// Solid sits at coordinate 0 so the surface faces +axis.
			if !approx(n[axis], 1) {
				t.Errorf("axis %d: normal %v, want +axis", axis, n)
			}
			if tri.Color != White {
				t.Errorf("color = %v, want white", tri.Color)
			}
		}
	}
}

func TestPlaneFloor(t *testing.T) {
	const n = 5
	f := density.New(n)
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				if y <= 1 {
					f.Set(x, y, z, 1)
				} else {
					f.Set(x, y, z, 0)
				}
			}
		}
	}

	tris := Extract(f, DefaultIsoValue)
	if want := 2 * (n - 1) * (n - 1); len(tris) != want {
		t.Fatalf("Extract() = %d triangles, want %d", len(tris), want)
	}
	for i, tri := range tris {
		for _, v := range tri.Vertices {
			if !approx(v.Y(), 1.5) {
				t.Fatalf("triangle %d vertex %v, want y=1.5", i, v)
			}
		}
		nrm := tri.Normal().Normalize()
		if !approx(nrm.Y(), 1) {
			t.Errorf("triangle %d normal %v, want +Y", i, nrm)
		}
	}
}

func TestInterpolation(t *testing.T) {
	a := corner{pos: mgl32.Vec3{0, 0, 0}, value: 0}
	b := corner{pos: mgl32.Vec3{1, 0, 0}, value: 1}
	if got := interpolate(a, b, 0.25); !approx(got.X(), 0.25) {
		t.Errorf("interpolate() = %v, want x=0.25", got)
	}

	// Equal densities resolve to the first endpoint.
	flat := corner{pos: mgl32.Vec3{1, 0, 0}, value: 0}
	if got := interpolate(a, flat, 0.5); got != a.pos {
		t.Errorf("interpolate() degenerate = %v, want %v", got, a.pos)
	}
}

func TestTableConsistency(t *testing.T) {
	for c := 0; c < 256; c++ {
		config := uint8(c)
		row := triTable[config]
		mask := EdgeMask(config)

		var used uint16
		count := 0
		for i := 0; row[i] != -1; i++ {
			used |= 1 << row[i]
			count++
		}
		if count%3 != 0 {
			t.Errorf("config %d: %d edge entries, not a multiple of 3", c, count)
		}
		if used != mask {
			t.Errorf("config %d: triangles use edges %012b, edge table says %012b", c, used, mask)
		}

		// A crossed edge joins a set corner to an unset one.
		for e := 0; e < 12; e++ {
			a, b := edgeCorners[e][0], edgeCorners[e][1]
			crossed := (c>>a)&1 != (c>>b)&1
			if crossed != (mask&(1<<e) != 0) {
				t.Errorf("config %d edge %d: crossed=%v but mask bit disagrees", c, e, crossed)
			}
		}
	}
}

func TestConfigMatchesCorners(t *testing.T) {
	f := density.New(2)
	f.Set(0, 0, 0, 1) // corner 0
	f.Set(1, 1, 1, 1) // corner 6
	if got, want := Config(f, 0, 0, 0, DefaultIsoValue), uint8(1|1<<6); got != want {
		t.Errorf("Config() = %08b, want %08b", got, want)
	}
}

func TestRandomFieldStaysInLattice(t *testing.T) {
	const n = 6
	rng := rand.New(rand.NewPCG(7, 11))
	f := density.New(n)
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				f.Set(x, y, z, rng.Float32())
			}
		}
	}

	tris := Extract(f, DefaultIsoValue)
	if len(tris) == 0 {
		t.Fatal("random field produced no surface")
	}
	for _, tri := range tris {
		for _, v := range tri.Vertices {
			for axis := 0; axis < 3; axis++ {
				if v[axis] < 0 || v[axis] > n-1 {
					t.Fatalf("vertex %v outside lattice", v)
				}
			}
		}
	}
}

func TestTooSmallField(t *testing.T) {
	if got := Extract(density.New(1), DefaultIsoValue); got != nil {
		t.Errorf("Extract() on 1-point field = %v, want nil", got)
	}
}
