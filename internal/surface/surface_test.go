package surface

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Faultbox/marchwater/internal/clock"
	"github.com/Faultbox/marchwater/internal/config"
	"github.com/Faultbox/marchwater/internal/density"
	"github.com/Faultbox/marchwater/internal/mesh"
	"github.com/Faultbox/marchwater/internal/pipeline"
	"github.com/Faultbox/marchwater/internal/telemetry"
	"github.com/Faultbox/marchwater/internal/terrain"
)

type countingPlane struct {
	terrain.Plane
	calls atomic.Int32
}

func (c *countingPlane) Populate(f *density.Field) {
	c.calls.Add(1)
	c.Plane.Populate(f)
}

func generated(s *Surface) bool {
	var ok bool
	s.Read(func(f *density.Field) { ok = f.Generated() })
	return ok
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func testParams(t *testing.T, n, maxTicks int) config.Params {
	t.Helper()
	cfg := config.Default()
	cfg.Volume.PointsPerAxis = n
	cfg.Simulation.MaxTicks = maxTicks
	cfg.Pipeline.Workers = 2
	p, err := cfg.Params()
	if err != nil {
		t.Fatalf("Params() error = %v", err)
	}
	return p
}

func TestSurfaceAttachPopulatesAndCommits(t *testing.T) {
	exec := pipeline.NewExecutor(2, 0, nil)
	defer exec.Close()

	gen := &countingPlane{Plane: terrain.Plane{Height: 1}}
	var committed []string
	s := New(Options{
		Name:      "terrain",
		Size:      5,
		Shading:   mesh.Flat,
		Generator: gen,
		Sink:      SinkFunc(func(name string, b *mesh.Buffer) { committed = append(committed, name) }),
	}, exec)

	built := 0
	s.OnMeshBuilt(func(*mesh.Buffer) { built++ })
	s.OnAttach()
	if err := exec.Settle(testContext(t)); err != nil {
		t.Fatalf("Settle() error = %v", err)
	}

	if gen.calls.Load() != 1 {
		t.Errorf("generator ran %d times, want 1", gen.calls.Load())
	}
	if len(committed) != 1 || committed[0] != "terrain" || built != 1 {
		t.Errorf("committed %v, callbacks %d; want one terrain commit", committed, built)
	}
	if got := s.Mesh().TriangleCount(); got != 32 {
		t.Errorf("Mesh().TriangleCount() = %d, want 32", got)
	}
	if !s.Field().Generated() {
		t.Error("field not marked generated")
	}

	// A second extraction reuses the generated field.
	s.Request()
	if err := exec.Settle(testContext(t)); err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if gen.calls.Load() != 1 {
		t.Errorf("generator ran %d times after rebuild, want 1", gen.calls.Load())
	}
}

func TestSurfaceResetRepopulates(t *testing.T) {
	exec := pipeline.NewExecutor(1, 0, nil)
	defer exec.Close()

	gen := &countingPlane{Plane: terrain.Plane{Height: 1}}
	parent := New(Options{Name: "terrain", Size: 4, Generator: gen}, exec)
	child := New(Options{Name: "water", Size: 4}, exec)
	parent.AddDependent(child)

	parent.OnAttach()
	if err := exec.Settle(testContext(t)); err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	child.Write(func(f *density.Field) {
		f.Set(1, 1, 1, 1)
		f.MarkGenerated()
	})
	childGen := child.Liveness().Generation()

	parent.OnExternalReset()
	if child.Field().Generated() || child.Field().Get(1, 1, 1) != 0 {
		t.Error("dependent field not invalidated")
	}
	if child.Liveness().Generation() != childGen+1 {
		t.Error("dependent generation not bumped")
	}
	if err := exec.Settle(testContext(t)); err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if gen.calls.Load() != 2 {
		t.Errorf("generator ran %d times, want 2", gen.calls.Load())
	}
	if st := parent.Stats(); st.Committed != 2 {
		t.Errorf("Stats() = %+v, want 2 commits", st)
	}
}

func TestDestroyedSurfaceDiscards(t *testing.T) {
	exec := pipeline.NewExecutor(1, 0, nil)
	defer exec.Close()

	commits := 0
	s := New(Options{
		Name:      "terrain",
		Size:      4,
		Generator: terrain.Plane{Height: 1},
		Sink:      SinkFunc(func(string, *mesh.Buffer) { commits++ }),
	}, exec)
	s.Request()
	s.Destroy()
	if err := exec.Settle(testContext(t)); err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if commits != 0 || s.Mesh() != nil {
		t.Errorf("destroyed surface committed %d meshes", commits)
	}
	if st := s.Stats(); st.Discarded != 1 {
		t.Errorf("Stats() = %+v, want one discard", st)
	}
}

func TestRunStopsAfterMaxTicks(t *testing.T) {
	p := testParams(t, 8, 3)
	manual := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	rec := telemetry.NewRecorder(nil)

	var commits []string
	w := NewWorld(p, Deps{
		Terrain:  terrain.Plane{Height: 2},
		Sink:     SinkFunc(func(name string, _ *mesh.Buffer) { commits = append(commits, name) }),
		Clock:    manual,
		Recorder: rec,
	})
	defer w.Close()

	if err := w.Run(testContext(t)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !w.Finished() {
		t.Error("Finished() = false after Run returned")
	}

	st := w.Stats()
	if st.Ticks != 3 {
		t.Errorf("Stats().Ticks = %d, want 3", st.Ticks)
	}
	want := []string{TerrainName, WaterName, WaterName, WaterName}
	if len(commits) != len(want) {
		t.Fatalf("commits = %v, want %v", commits, want)
	}
	for i := range want {
		if commits[i] != want[i] {
			t.Errorf("commit %d = %s, want %s", i, commits[i], want[i])
		}
	}

	// Each tick took no virtual time, so the limiter slept a full interval.
	interval := time.Second / 30
	sleeps := manual.Sleeps()
	if len(sleeps) != 3 {
		t.Fatalf("limiter slept %d times, want 3", len(sleeps))
	}
	for i, d := range sleeps {
		if d != interval {
			t.Errorf("sleep %d = %v, want %v", i, d, interval)
		}
	}

	records := rec.Records()
	if len(records) != 3 || !records[0].Seeded || records[2].Tick != 3 {
		t.Errorf("records = %+v, want 3 ticks starting seeded", records)
	}
	if records[0].TerrainTriangles != w.Terrain.Mesh().TriangleCount() {
		t.Errorf("recorded %d terrain triangles, want %d", records[0].TerrainTriangles, w.Terrain.Mesh().TriangleCount())
	}
}

func TestRunHonoursCancel(t *testing.T) {
	p := testParams(t, 6, 0)
	w := NewWorld(p, Deps{Clock: clock.NewManual(time.Unix(0, 0))})
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	w.Terrain.OnMeshBuilt(func(*mesh.Buffer) { cancel() })
	if err := w.Run(ctx); err != context.Canceled {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestStepOnceIsDeterministic(t *testing.T) {
	p := testParams(t, 8, 0)
	a := NewWorld(p, Deps{Terrain: terrain.Plane{Height: 2}})
	b := NewWorld(p, Deps{Terrain: terrain.Plane{Height: 2}})
	defer a.Close()
	defer b.Close()

	for i := 1; i <= 5; i++ {
		ra, rb := a.StepOnce(), b.StepOnce()
		if ra != rb {
			t.Fatalf("tick %d: reports differ %+v vs %+v", i, ra, rb)
		}
		if ra.Tick != uint64(i) || ra.Seeded != (i == 1) {
			t.Errorf("tick %d: report = %+v", i, ra)
		}
	}
	if a.Terrain.Mesh().IsEmpty() {
		t.Error("terrain mesh empty after StepOnce")
	}
	if a.Water.Mesh() == nil {
		t.Error("water mesh not committed by StepOnce")
	}
	if a.Stats().Ticks != 5 {
		t.Errorf("Stats().Ticks = %d, want 5", a.Stats().Ticks)
	}
	for _, v := range a.Water.Field().Values() {
		if v < 0 || v > 1 {
			t.Fatalf("water sample %v outside [0,1]", v)
		}
	}
}

func TestWorldResetReseeds(t *testing.T) {
	p := testParams(t, 8, 1)
	w := NewWorld(p, Deps{Terrain: terrain.Plane{Height: 2}})
	defer w.Close()

	w.StepOnce()
	w.StepOnce()
	waterGen := w.Water.Liveness().Generation()

	w.Reset()
	if generated(w.Water) {
		t.Error("water still generated after Reset")
	}
	if w.Water.Liveness().Generation() != waterGen+1 {
		t.Error("water generation not bumped by terrain reset")
	}

	// The rebuilt terrain re-requests water; the next tick reseeds and the
	// spent tick budget ends the loop.
	if err := w.Settle(testContext(t)); err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if !generated(w.Terrain) || !generated(w.Water) {
		t.Error("fields not regenerated after reset")
	}
	if !w.Finished() {
		t.Error("loop did not stop at the tick budget")
	}
	if got := w.Simulator().Ticks(); got != 3 {
		t.Errorf("Simulator().Ticks() = %d, want 3", got)
	}
}

func TestWorldScheduleResetDefersToCommitContext(t *testing.T) {
	p := testParams(t, 8, 1)
	w := NewWorld(p, Deps{Terrain: terrain.Plane{Height: 2}})
	defer w.Close()

	w.StepOnce()
	w.StepOnce()
	terrainGen := w.Terrain.Liveness().Generation()
	waterGen := w.Water.Liveness().Generation()

	done := make(chan struct{})
	go func() {
		w.ScheduleReset()
		close(done)
	}()
	<-done

	if got := w.Terrain.Liveness().Generation(); got != terrainGen {
		t.Fatalf("terrain generation = %d before commit, want %d", got, terrainGen)
	}
	if err := w.Settle(testContext(t)); err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if got := w.Terrain.Liveness().Generation(); got != terrainGen+1 {
		t.Errorf("terrain generation = %d, want %d", got, terrainGen+1)
	}
	if got := w.Water.Liveness().Generation(); got != waterGen+1 {
		t.Errorf("water generation = %d, want %d", got, waterGen+1)
	}
	if !generated(w.Terrain) || !generated(w.Water) {
		t.Error("fields not regenerated after scheduled reset")
	}
}
