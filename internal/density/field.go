// Package density provides the cubic scalar grid that surfaces are extracted from.
package density

// Field is an N×N×N grid of occupancy samples in [0,1].
// 0 is empty (air), 1 is full (solid).
//
// Samples are stored x-fastest: index = x + N*(y + N*z).
// Field does no locking; the owning surface serialises access.
type Field struct {
	n         int
	values    []float32
	generated bool
}

// New allocates a zeroed field with n points per axis.
func New(n int) *Field {
	if n < 1 {
		n = 1
	}
	return &Field{n: n, values: make([]float32, n*n*n)}
}

// Size returns the number of points per axis.
func (f *Field) Size() int { return f.n }

// Len returns the total number of samples.
func (f *Field) Len() int { return len(f.values) }

// Index returns the linear index for (x, y, z). The caller must check bounds.
func (f *Field) Index(x, y, z int) int { return x + f.n*(y+f.n*z) }

// InBounds reports whether (x, y, z) lies inside the grid.
func (f *Field) InBounds(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < f.n && y < f.n && z < f.n
}

// Get returns the sample at (x, y, z). Outside the grid the world is closed,
// so out-of-bounds reads report solid (1).
func (f *Field) Get(x, y, z int) float32 {
	if !f.InBounds(x, y, z) {
		return 1
	}
	return f.values[f.Index(x, y, z)]
}

// Set stores v clamped to [0,1]. Out-of-bounds writes are ignored.
func (f *Field) Set(x, y, z int, v float32) {
	if !f.InBounds(x, y, z) {
		return
	}
	f.values[f.Index(x, y, z)] = clamp01(v)
}

// Add accumulates amount into (x, y, z), clamping the result to [0,1].
// Out-of-bounds writes are ignored.
func (f *Field) Add(x, y, z int, amount float32) {
	if !f.InBounds(x, y, z) {
		return
	}
	i := f.Index(x, y, z)
	f.values[i] = clamp01(f.values[i] + amount)
}

// Fill sets every sample to v (clamped).
func (f *Field) Fill(v float32) {
	v = clamp01(v)
	for i := range f.values {
		f.values[i] = v
	}
}

// Clear zeroes every sample.
func (f *Field) Clear() { f.Fill(0) }

// Generated reports whether the field has been populated since allocation
// or the last Invalidate.
func (f *Field) Generated() bool { return f.generated }

// MarkGenerated flags the field as populated.
func (f *Field) MarkGenerated() { f.generated = true }

// Invalidate clears the field and marks it for regeneration.
func (f *Field) Invalidate() {
	f.Clear()
	f.generated = false
}

// Mass returns the sum of all samples.
func (f *Field) Mass() float64 {
	var sum float64
	for _, v := range f.values {
		sum += float64(v)
	}
	return sum
}

// Values exposes the backing samples for read-only consumers such as debug
// overlays. Callers must not write through the returned slice.
func (f *Field) Values() []float32 { return f.values }

// Clone returns a deep copy of the field, including its generated flag.
func (f *Field) Clone() *Field {
	c := &Field{n: f.n, values: make([]float32, len(f.values)), generated: f.generated}
	copy(c.values, f.values)
	return c
}

func clamp01(v float32) float32 {
	// NaN fails both comparisons; treat it as empty so the invariant holds.
	if !(v >= 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
