package density

import (
	"math"
	"testing"
)

func TestSetClamps(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		want float32
	}{
		{"above one", 1.5, 1},
		{"below zero", -0.5, 0},
		{"inside", 0.25, 0.25},
		{"nan", float32(math.NaN()), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(4)
			f.Set(1, 2, 3, tt.in)
			if got := f.Get(1, 2, 3); got != tt.want {
				t.Errorf("Get() after Set(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestGetOutOfBoundsIsSolid(t *testing.T) {
	f := New(4)
	coords := [][3]int{
		{-1, 0, 0}, {0, -1, 0}, {0, 0, -1},
		{4, 0, 0}, {0, 4, 0}, {0, 0, 4},
		{100, -100, 2},
	}
	for _, c := range coords {
		if got := f.Get(c[0], c[1], c[2]); got != 1 {
			t.Errorf("Get(%v) = %v, want 1", c, got)
		}
	}
}

func TestOutOfBoundsWritesIgnored(t *testing.T) {
	f := New(3)
	f.Set(-1, 0, 0, 0.5)
	f.Set(3, 0, 0, 0.5)
	f.Add(0, 3, 0, 0.5)
	if m := f.Mass(); m != 0 {
		t.Errorf("Mass() = %v after out-of-bounds writes, want 0", m)
	}
}

func TestAddAccumulatesAndClamps(t *testing.T) {
	f := New(2)
	f.Add(1, 1, 1, 0.4)
	f.Add(1, 1, 1, 0.4)
	if got := f.Get(1, 1, 1); math.Abs(float64(got-0.8)) > 1e-6 {
		t.Errorf("Get() = %v, want 0.8", got)
	}
	f.Add(1, 1, 1, 0.4)
	if got := f.Get(1, 1, 1); got != 1 {
		t.Errorf("Get() = %v, want clamp to 1", got)
	}
	f.Add(1, 1, 1, -5)
	if got := f.Get(1, 1, 1); got != 0 {
		t.Errorf("Get() = %v, want clamp to 0", got)
	}
}

func TestIndexIsBijection(t *testing.T) {
	const n = 5
	f := New(n)
	seen := make(map[int]bool, n*n*n)
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				i := f.Index(x, y, z)
				if i < 0 || i >= f.Len() {
					t.Fatalf("Index(%d,%d,%d) = %d out of range", x, y, z, i)
				}
				if seen[i] {
					t.Fatalf("Index(%d,%d,%d) = %d collides", x, y, z, i)
				}
				seen[i] = true
			}
		}
	}
}

func TestGeneratedLifecycle(t *testing.T) {
	f := New(3)
	if f.Generated() {
		t.Fatal("new field reports generated")
	}
	f.Fill(1)
	f.MarkGenerated()
	if !f.Generated() {
		t.Fatal("MarkGenerated did not stick")
	}
	f.Invalidate()
	if f.Generated() {
		t.Error("Invalidate left generated flag set")
	}
	if m := f.Mass(); m != 0 {
		t.Errorf("Mass() after Invalidate = %v, want 0", m)
	}
}

func TestCloneIsDeep(t *testing.T) {
	f := New(2)
	f.Set(0, 0, 0, 0.5)
	f.MarkGenerated()
	c := f.Clone()
	c.Set(0, 0, 0, 1)
	if f.Get(0, 0, 0) != 0.5 {
		t.Error("Clone shares storage with original")
	}
	if !c.Generated() {
		t.Error("Clone dropped generated flag")
	}
}
