package pipeline

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/marchwater/internal/mesh"
)

// State is the extraction lifecycle of one surface.
type State int32

const (
	Idle State = iota
	Extracting
	Committing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Extracting:
		return "extracting"
	case Committing:
		return "committing"
	default:
		return "unknown"
	}
}

// Liveness tracks whether results for a surface may still be committed.
// Killing it or bumping the generation invalidates every token issued
// before.
type Liveness struct {
	alive atomic.Bool
	gen   atomic.Uint64
}

// NewLiveness returns a live token source at generation zero.
func NewLiveness() *Liveness {
	l := &Liveness{}
	l.alive.Store(true)
	return l
}

// Token snapshots the current generation.
func (l *Liveness) Token() Token { return Token{l: l, gen: l.gen.Load()} }

// Bump starts a new generation, typically on external reset.
func (l *Liveness) Bump() uint64 { return l.gen.Add(1) }

// Kill marks the surface destroyed.
func (l *Liveness) Kill() { l.alive.Store(false) }

// Alive reports whether the surface is still live.
func (l *Liveness) Alive() bool { return l.alive.Load() }

// Generation returns the current generation.
func (l *Liveness) Generation() uint64 { return l.gen.Load() }

// Token is a liveness snapshot taken when work is requested.
type Token struct {
	l   *Liveness
	gen uint64
}

// Valid reports whether the surface is alive and has not been reset since
// the token was taken.
func (t Token) Valid() bool {
	return t.l != nil && t.l.alive.Load() && t.l.gen.Load() == t.gen
}

// Stats counts extraction requests by outcome.
type Stats struct {
	Requested uint64
	Committed uint64
	Discarded uint64
	InFlight  int64
}

// BuildFunc produces a mesh on a background worker.
type BuildFunc func() *mesh.Buffer

// ApplyFunc installs a built mesh. It runs on the commit context.
type ApplyFunc func(*mesh.Buffer)

// Extraction schedules mesh builds for one surface. Requests are never
// de-duplicated: overlapping requests each build and commit in turn.
type Extraction struct {
	name  string
	exec  *Executor
	live  *Liveness
	build BuildFunc
	apply ApplyFunc
	log   *zap.Logger

	state     atomic.Int32
	inFlight  atomic.Int64
	requested atomic.Uint64
	committed atomic.Uint64
	discarded atomic.Uint64
}

// NewExtraction wires a surface's build and apply functions to an executor.
func NewExtraction(name string, exec *Executor, live *Liveness, build BuildFunc, apply ApplyFunc, log *zap.Logger) *Extraction {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extraction{
		name:  name,
		exec:  exec,
		live:  live,
		build: build,
		apply: apply,
		log:   log,
	}
}

// Request schedules a rebuild. Results whose token has gone stale by commit
// time are discarded.
func (x *Extraction) Request() {
	token := x.live.Token()
	x.requested.Add(1)
	x.inFlight.Add(1)
	x.state.Store(int32(Extracting))

	x.exec.Submit(func() CommitFunc {
		var b *mesh.Buffer
		var err error
		if token.Valid() {
			b, err = x.safeBuild()
		}
		return func() { x.commit(token, b, err) }
	})
}

// safeBuild turns a panic in build into an error so the request still
// reaches the commit context and leaves the in-flight count.
func (x *Extraction) safeBuild() (b *mesh.Buffer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("building %s mesh: %v", x.name, r)
		}
	}()
	return x.build(), nil
}

func (x *Extraction) commit(token Token, b *mesh.Buffer, err error) {
	remaining := x.inFlight.Add(-1)
	defer func() {
		if remaining == 0 {
			x.state.Store(int32(Idle))
		} else {
			x.state.Store(int32(Extracting))
		}
	}()

	if err != nil {
		x.discarded.Add(1)
		x.log.Error("mesh build failed", zap.String("surface", x.name), zap.Error(err))
		return
	}
	if !token.Valid() {
		x.discarded.Add(1)
		x.log.Debug("discarding stale mesh",
			zap.String("surface", x.name),
			zap.Uint64("generation", token.gen))
		return
	}

	x.state.Store(int32(Committing))
	x.apply(b)
	x.committed.Add(1)
}

// State returns the current lifecycle state.
func (x *Extraction) State() State { return State(x.state.Load()) }

// Stats returns a snapshot of the request counters.
func (x *Extraction) Stats() Stats {
	return Stats{
		Requested: x.requested.Load(),
		Committed: x.committed.Load(),
		Discarded: x.discarded.Load(),
		InFlight:  x.inFlight.Load(),
	}
}
