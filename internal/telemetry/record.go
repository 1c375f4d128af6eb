// Package telemetry records per-tick simulation statistics and writes them
// as CSV for offline analysis.
package telemetry

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TickRecord is one row of ticks.csv.
type TickRecord struct {
	Tick             uint64  `csv:"tick"`
	SimMillis        float64 `csv:"sim_ms"`
	SleptMillis      float64 `csv:"slept_ms"`
	WaterMass        float64 `csv:"water_mass"`
	MassDelta        float64 `csv:"mass_delta"`
	WaterTriangles   int     `csv:"water_triangles"`
	WaterVertices    int     `csv:"water_vertices"`
	TerrainTriangles int     `csv:"terrain_triangles"`
	TerrainVertices  int     `csv:"terrain_vertices"`
	WaterACMR        float64 `csv:"water_acmr"`
	Seeded           bool    `csv:"seeded"`
}

// Millis converts a duration to fractional milliseconds.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Recorder keeps every tick record in memory and forwards each to an
// optional Output.
type Recorder struct {
	mu      sync.Mutex
	records []TickRecord
	out     *Output
}

// NewRecorder creates a recorder. out may be nil.
func NewRecorder(out *Output) *Recorder {
	return &Recorder{out: out}
}

// Record stores r and writes it to the output, if any.
func (r *Recorder) Record(rec TickRecord) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return r.out.WriteTick(rec)
}

// Records returns a copy of everything recorded so far.
func (r *Recorder) Records() []TickRecord {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TickRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Summary aggregates a run.
type Summary struct {
	Ticks          int
	MeanSimMillis  float64
	StdSimMillis   float64
	MaxSimMillis   float64
	FinalMass      float64
	TotalMassDrift float64
	MaxAbsDrift    float64
}

// Summary computes aggregate statistics over the recorded ticks.
func (r *Recorder) Summary() Summary {
	records := r.Records()
	if len(records) == 0 {
		return Summary{}
	}

	durations := make([]float64, len(records))
	drift := make([]float64, len(records))
	absDrift := make([]float64, len(records))
	for i, rec := range records {
		durations[i] = rec.SimMillis
		drift[i] = rec.MassDelta
		if rec.MassDelta < 0 {
			absDrift[i] = -rec.MassDelta
		} else {
			absDrift[i] = rec.MassDelta
		}
	}

	s := Summary{
		Ticks:          len(records),
		MaxSimMillis:   floats.Max(durations),
		FinalMass:      records[len(records)-1].WaterMass,
		TotalMassDrift: floats.Sum(drift),
		MaxAbsDrift:    floats.Max(absDrift),
	}
	if len(durations) > 1 {
		s.MeanSimMillis, s.StdSimMillis = stat.MeanStdDev(durations, nil)
	} else {
		s.MeanSimMillis = durations[0]
	}
	return s
}
