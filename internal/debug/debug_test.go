package debug

import (
	"strings"
	"testing"

	"github.com/Faultbox/marchwater/internal/density"
	"github.com/Faultbox/marchwater/internal/march"
)

func floor(n int) *density.Field {
	f := density.New(n)
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			f.Set(x, 0, z, 1)
			f.Set(x, 1, z, 1)
		}
	}
	return f
}

func TestPoints(t *testing.T) {
	f := density.New(4)
	f.Set(1, 2, 3, 1)
	f.Set(0, 0, 0, 0.3)

	o := NewOverlay(f, march.DefaultIsoValue)
	pts := o.Points(0.5)
	if len(pts) != 1 {
		t.Fatalf("Points(0.5) = %d vertices, want 1", len(pts))
	}
	if p := pts[0]; p.X != 1 || p.Y != 2 || p.Z != 3 || p.R != 1 {
		t.Errorf("point = %+v, want full-bright at (1,2,3)", p)
	}
	if got := len(o.Points(0.1)); got != 2 {
		t.Errorf("Points(0.1) = %d vertices, want 2", got)
	}
	if got := len(Floats(pts)); got != 6 {
		t.Errorf("len(Floats()) = %d, want 6", got)
	}
}

func TestNilOverlay(t *testing.T) {
	o := NewOverlay(nil, 0.5)
	if o != nil {
		t.Fatal("NewOverlay(nil) should return nil")
	}
	if o.Points(0) != nil || o.Bounds() != nil || o.SurfaceCells() != nil || o.Inspect(0, 0, 0) != nil {
		t.Error("nil overlay should produce nothing")
	}
}

func TestBounds(t *testing.T) {
	vs := NewOverlay(density.New(5), 0.5).Bounds()
	if len(vs) != 24 {
		t.Fatalf("Bounds() = %d vertices, want 24", len(vs))
	}
	for _, v := range vs {
		for _, c := range []float32{v.X, v.Y, v.Z} {
			if c != 0 && c != 4 {
				t.Fatalf("bounds vertex %+v off the lattice cube", v)
			}
		}
	}
}

func TestSurfaceCells(t *testing.T) {
	const n = 5
	cells := NewOverlay(floor(n), march.DefaultIsoValue).SurfaceCells()
	if len(cells) != (n-1)*(n-1) {
		t.Fatalf("SurfaceCells() = %d, want %d", len(cells), (n-1)*(n-1))
	}
	for _, c := range cells {
		if c.Y != 1.5 {
			t.Errorf("cell center %+v, want y=1.5", c)
		}
		if want := triangleCountColor(2); c.R != want[0] || c.G != want[1] || c.B != want[2] {
			t.Errorf("cell color %+v, want two-triangle color", c)
		}
	}
}

func TestInspect(t *testing.T) {
	o := NewOverlay(floor(4), march.DefaultIsoValue)

	info := o.Inspect(0, 1, 0)
	if info == nil {
		t.Fatal("Inspect() = nil inside lattice")
	}
	// Bottom face solid, top face empty.
	if info.Config != 0x0f {
		t.Errorf("Config = %08b, want 00001111", info.Config)
	}
	if info.Triangles != 2 {
		t.Errorf("Triangles = %d, want 2", info.Triangles)
	}
	if info.Corners[0] != 1 || info.Corners[6] != 0 {
		t.Errorf("Corners = %v", info.Corners)
	}

	for _, c := range [][3]int{{-1, 0, 0}, {3, 0, 0}, {0, 0, 3}} {
		if o.Inspect(c[0], c[1], c[2]) != nil {
			t.Errorf("Inspect(%v) should be nil outside lattice", c)
		}
	}
}

func TestSlice(t *testing.T) {
	f := floor(3)

	got, err := Slice(f, AxisZ, 1)
	if err != nil {
		t.Fatalf("Slice() error = %v", err)
	}
	want := "   \n@@@\n@@@\n"
	if got != want {
		t.Errorf("Slice(AxisZ) =\n%q\nwant\n%q", got, want)
	}

	top, _ := Slice(f, AxisY, 2)
	if strings.TrimSpace(top) != "" {
		t.Errorf("Slice(AxisY, 2) = %q, want blank", top)
	}

	if _, err := Slice(f, AxisX, 3); err == nil {
		t.Error("Slice() out of range should error")
	}
	if _, err := Slice(f, Axis(7), 0); err == nil {
		t.Error("Slice() with unknown axis should error")
	}
}

func TestShadeChar(t *testing.T) {
	tests := []struct {
		v    float32
		want byte
	}{
		{0, ' '},
		{1, '@'},
		{0.5, '='},
		{-1, ' '},
	}
	for _, tt := range tests {
		if got := shadeChar(tt.v); got != tt.want {
			t.Errorf("shadeChar(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}
