// Package app wires configuration, terrain, telemetry and the world into a
// runnable simulation.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/marchwater/internal/clock"
	"github.com/Faultbox/marchwater/internal/config"
	"github.com/Faultbox/marchwater/internal/debug"
	"github.com/Faultbox/marchwater/internal/density"
	"github.com/Faultbox/marchwater/internal/logger"
	"github.com/Faultbox/marchwater/internal/surface"
	"github.com/Faultbox/marchwater/internal/telemetry"
	"github.com/Faultbox/marchwater/internal/terrain"
)

// App is one simulation run.
type App struct {
	cfg      *config.Config
	params   config.Params
	world    *surface.World
	output   *telemetry.Output
	recorder *telemetry.Recorder
	log      *zap.Logger
}

// Option customises an App.
type Option func(*surface.Deps)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c clock.Clock) Option {
	return func(d *surface.Deps) { d.Clock = c }
}

// New builds an App from cfg. sink receives every committed mesh and may be
// nil for headless runs.
func New(cfg *config.Config, sink surface.Sink, opts ...Option) (*App, error) {
	params, err := cfg.Params()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	gen, err := terrain.FromConfig(cfg.Terrain, params.PointsPerAxis)
	if err != nil {
		return nil, fmt.Errorf("building terrain: %w", err)
	}

	a := &App{
		cfg:    cfg,
		params: params,
		log:    logger.Named("app"),
	}

	if cfg.Telemetry.Enabled {
		a.output, err = telemetry.NewOutput(cfg.Telemetry.Dir)
		if err != nil {
			return nil, fmt.Errorf("opening telemetry output: %w", err)
		}
		if err := a.output.WriteConfig(cfg); err != nil {
			a.output.Close()
			return nil, fmt.Errorf("writing run config: %w", err)
		}
	}
	a.recorder = telemetry.NewRecorder(a.output)

	deps := surface.Deps{
		Terrain:  gen,
		Sink:     sink,
		Recorder: a.recorder,
		Log:      logger.Named("world"),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	a.world = surface.NewWorld(params, deps)

	a.log.Info("simulation ready",
		zap.String("terrain", gen.Name()),
		zap.Int("points_per_axis", params.PointsPerAxis),
		zap.Float32("iso_value", params.IsoValue),
		zap.Ints("seed", params.Seed[:]),
		zap.String("telemetry", a.output.Dir()))
	return a, nil
}

// World returns the running world.
func (a *App) World() *surface.World { return a.world }

// Params returns the frozen run parameters.
func (a *App) Params() config.Params { return a.params }

// Run drives the world until ctx is cancelled or the tick budget is spent.
// Cancellation is not an error.
func (a *App) Run(ctx context.Context) error {
	err := a.world.Run(ctx)
	if errors.Is(err, context.Canceled) {
		a.log.Info("interrupted", zap.Uint64("ticks", a.world.Stats().Ticks))
		return nil
	}
	return err
}

// Summary aggregates the recorded ticks.
func (a *App) Summary() telemetry.Summary { return a.recorder.Summary() }

// Report writes a human-readable summary and a density slice through the
// seed column of the water field.
func (a *App) Report(w io.Writer) error {
	s := a.Summary()
	st := a.world.Stats()

	var b strings.Builder
	fmt.Fprintf(&b, "ticks:            %d (stale %d)\n", st.Ticks, st.StaleTicks)
	fmt.Fprintf(&b, "terrain meshes:   %d committed, %d discarded\n", st.Terrain.Committed, st.Terrain.Discarded)
	fmt.Fprintf(&b, "water meshes:     %d committed, %d discarded\n", st.Water.Committed, st.Water.Discarded)
	fmt.Fprintf(&b, "step time:        %.3f ms mean, %.3f ms std, %.3f ms max\n", s.MeanSimMillis, s.StdSimMillis, s.MaxSimMillis)
	fmt.Fprintf(&b, "water mass:       %.4f (drift %+.4f total, %.4f max per tick)\n", s.FinalMass, s.TotalMassDrift, s.MaxAbsDrift)

	var slice string
	var err error
	a.world.Water.Read(func(f *density.Field) {
		slice, err = debug.Slice(f, debug.AxisZ, a.params.Seed[2])
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(&b, "water slice z=%d:\n%s", a.params.Seed[2], slice)

	_, err = io.WriteString(w, b.String())
	return err
}

// Close stops the world and flushes telemetry.
func (a *App) Close() error {
	a.world.Close()
	return a.output.Close()
}
