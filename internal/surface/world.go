package surface

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/marchwater/internal/clock"
	"github.com/Faultbox/marchwater/internal/config"
	"github.com/Faultbox/marchwater/internal/density"
	"github.com/Faultbox/marchwater/internal/mesh"
	"github.com/Faultbox/marchwater/internal/pipeline"
	"github.com/Faultbox/marchwater/internal/telemetry"
	"github.com/Faultbox/marchwater/internal/terrain"
	"github.com/Faultbox/marchwater/internal/water"
)

// Surface names passed to the sink.
const (
	TerrainName = "terrain"
	WaterName   = "water"
)

// acmrCacheSize is the FIFO size telemetry measures vertex cache reuse with.
const acmrCacheSize = 16

// Deps are the collaborators a World is built from.
type Deps struct {
	Terrain  terrain.Generator
	Sink     Sink
	Clock    clock.Clock
	Recorder *telemetry.Recorder
	Log      *zap.Logger
}

// Stats summarises loop progress.
type Stats struct {
	Ticks      uint64
	StaleTicks uint64
	Terrain    pipeline.Stats
	Water      pipeline.Stats
}

// World owns the terrain and water surfaces and drives the loop:
// terrain commit requests water extraction, water commit schedules a tick,
// and a committed tick requests water extraction again.
type World struct {
	params   config.Params
	exec     *pipeline.Executor
	limiter  *clock.Limiter
	clock    clock.Clock
	sim      *water.Simulator
	recorder *telemetry.Recorder
	log      *zap.Logger

	Terrain *Surface
	Water   *Surface

	ctx      context.Context
	cancel   context.CancelFunc
	finished chan struct{}
	once     sync.Once

	ticks      atomic.Uint64
	staleTicks atomic.Uint64
}

// NewWorld builds both surfaces, the simulator and the executor.
func NewWorld(p config.Params, deps Deps) *World {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Terrain == nil {
		deps.Terrain = terrain.Plane{Height: float64(p.PointsPerAxis) / 4}
	}

	w := &World{
		params:   p,
		exec:     pipeline.NewExecutor(p.Workers, p.QueueSize, deps.Log.Named("pipeline")),
		limiter:  clock.NewLimiter(p.TickRateHz, deps.Clock),
		clock:    deps.Clock,
		recorder: deps.Recorder,
		log:      deps.Log,
		finished: make(chan struct{}),
	}
	w.ctx, w.cancel = context.WithCancel(context.Background())

	w.Terrain = New(Options{
		Name:      TerrainName,
		Size:      p.PointsPerAxis,
		Iso:       p.IsoValue,
		Shading:   p.TerrainShading,
		Generator: deps.Terrain,
		Sink:      deps.Sink,
		Log:       deps.Log.Named(TerrainName),
	}, w.exec)
	w.Water = New(Options{
		Name:    WaterName,
		Size:    p.PointsPerAxis,
		Iso:     p.IsoValue,
		Shading: p.WaterShading,
		Sink:    deps.Sink,
		Log:     deps.Log.Named(WaterName),
	}, w.exec)

	w.sim = water.New(w.Water.Field(), w.Terrain.Field(),
		water.WithDamping(p.Damping),
		water.WithSeed(water.Cell{X: p.Seed[0], Y: p.Seed[1], Z: p.Seed[2]}),
		water.WithLogger(deps.Log.Named("sim")))

	w.Terrain.AddDependent(w.Water)
	w.Terrain.OnMeshBuilt(func(*mesh.Buffer) { w.Water.Request() })
	w.Water.OnMeshBuilt(func(*mesh.Buffer) { w.scheduleTick() })
	return w
}

// Start attaches the terrain, which starts the loop. Commits are applied by
// Run or by the caller through Drain.
func (w *World) Start(ctx context.Context) {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.log.Info("world starting",
		zap.Int("points_per_axis", w.params.PointsPerAxis),
		zap.Int("max_ticks", w.params.MaxTicks),
		zap.Duration("tick_interval", w.limiter.Interval))
	w.Terrain.OnAttach()
}

// Run starts the loop and applies commits on the calling goroutine until
// ctx is cancelled or MaxTicks ticks have committed.
func (w *World) Run(ctx context.Context) error {
	w.Start(ctx)
	err := w.exec.Run(w.ctx)
	if w.Finished() {
		return nil
	}
	return err
}

// Drain applies queued commits without blocking.
func (w *World) Drain() int { return w.exec.Drain() }

// Settle applies commits until no work is pending.
func (w *World) Settle(ctx context.Context) error { return w.exec.Settle(ctx) }

// Done is closed once MaxTicks ticks have committed.
func (w *World) Done() <-chan struct{} { return w.finished }

// Finished reports whether the tick budget is spent.
func (w *World) Finished() bool {
	select {
	case <-w.finished:
		return true
	default:
		return false
	}
}

// Close stops the loop and waits for workers.
func (w *World) Close() {
	w.cancel()
	w.exec.Close()
}

// Reset propagates an external reset from the terrain to the water.
// It must be called on the commit context; other goroutines use
// ScheduleReset.
func (w *World) Reset() {
	w.log.Info("external reset")
	w.Terrain.OnExternalReset()
}

// ScheduleReset queues Reset for the commit context. Safe from any goroutine.
func (w *World) ScheduleReset() {
	w.exec.Submit(func() pipeline.CommitFunc { return w.Reset })
}

// Simulator exposes the water simulator.
func (w *World) Simulator() *water.Simulator { return w.sim }

// Params returns the constants the world was built with.
func (w *World) Params() config.Params { return w.params }

// Stats returns loop counters.
func (w *World) Stats() Stats {
	return Stats{
		Ticks:      w.ticks.Load(),
		StaleTicks: w.staleTicks.Load(),
		Terrain:    w.Terrain.Stats(),
		Water:      w.Water.Stats(),
	}
}

// step advances the simulator with both fields locked. It reports false
// when the water surface was reset or destroyed since token was taken.
func (w *World) step(token pipeline.Token) (water.TickReport, bool) {
	var report water.TickReport
	ok := false
	w.Water.Write(func(*density.Field) {
		if !token.Valid() {
			return
		}
		w.Terrain.Read(func(*density.Field) {
			report = w.sim.Step()
		})
		ok = true
	})
	return report, ok
}

// scheduleTick runs one simulation step on a worker, then holds the worker
// for the rest of the tick interval before committing.
func (w *World) scheduleTick() {
	if w.Finished() {
		return
	}
	token := w.Water.Liveness().Token()
	ctx := w.ctx

	w.exec.Submit(func() pipeline.CommitFunc {
		start := w.clock.Now()
		report, ok := w.step(token)
		simulated := w.clock.Now().Sub(start)
		if !ok {
			return func() { w.staleTicks.Add(1) }
		}
		slept, err := w.limiter.Wait(ctx, start)
		if err != nil {
			return nil
		}
		return func() { w.commitTick(token, report, simulated, slept) }
	})
}

func (w *World) commitTick(token pipeline.Token, report water.TickReport, simulated, slept time.Duration) {
	if !token.Valid() {
		w.staleTicks.Add(1)
		return
	}
	n := w.ticks.Add(1)

	rec := telemetry.TickRecord{
		Tick:             report.Tick,
		SimMillis:        telemetry.Millis(simulated),
		SleptMillis:      telemetry.Millis(slept),
		WaterMass:        report.MassAfter,
		MassDelta:        report.MassDelta(),
		WaterTriangles:   w.Water.Mesh().TriangleCount(),
		WaterVertices:    w.Water.Mesh().VertexCount(),
		TerrainTriangles: w.Terrain.Mesh().TriangleCount(),
		TerrainVertices:  w.Terrain.Mesh().VertexCount(),
		WaterACMR:        w.Water.Mesh().ACMR(acmrCacheSize),
		Seeded:           report.Seeded,
	}
	if err := w.recorder.Record(rec); err != nil {
		w.log.Warn("telemetry write failed", zap.Error(err))
	}
	w.log.Debug("tick",
		zap.Uint64("tick", report.Tick),
		zap.Float64("mass", report.MassAfter),
		zap.Float64("mass_delta", report.MassDelta()))

	if limit := w.params.MaxTicks; limit > 0 && n >= uint64(limit) {
		w.finish()
		return
	}
	w.Water.Request()
}

func (w *World) finish() {
	w.once.Do(func() {
		w.log.Info("tick budget reached", zap.Uint64("ticks", w.ticks.Load()))
		close(w.finished)
		w.cancel()
	})
}

// StepOnce advances the simulation by one tick and rebuilds the water mesh
// synchronously, bypassing the executor. The terrain is populated and
// meshed first if needed. It must not be mixed with a running loop.
func (w *World) StepOnce() water.TickReport {
	if w.Terrain.Mesh() == nil {
		w.Terrain.Rebuild()
	}
	report, _ := w.step(w.Water.Liveness().Token())
	w.ticks.Add(1)
	w.Water.Rebuild()
	return report
}
