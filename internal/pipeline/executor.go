// Package pipeline moves mesh construction and simulation work onto
// background workers and hands the results back to a single commit context.
package pipeline

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"
)

// CommitFunc runs on the commit context.
type CommitFunc func()

// Work runs on a background worker and returns the commit to apply, or nil
// when there is nothing to commit.
type Work func() CommitFunc

func noCommit() {}

// DefaultQueueSize is the commit channel capacity used when none is given.
const DefaultQueueSize = 64

// Executor pairs a worker pool with a commit queue. Work may run in parallel
// and finish in any order; commits are applied one at a time by whoever
// calls Run, Drain or Settle.
type Executor struct {
	pool    pond.Pool
	commits chan CommitFunc
	done    chan struct{}
	once    sync.Once
	pending atomic.Int64
	log     *zap.Logger
}

// NewExecutor creates an executor with the given worker count (<= 0 means
// one per CPU) and commit queue size.
func NewExecutor(workers, queue int, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queue <= 0 {
		queue = DefaultQueueSize
	}
	return &Executor{
		pool:    pond.NewPool(workers),
		commits: make(chan CommitFunc, queue),
		done:    make(chan struct{}),
		log:     log,
	}
}

// Submit schedules work on a worker. Its commit is queued for the commit
// context; work that returns nil or panics queues a no-op in its place.
// Work submitted after Close is dropped.
func (e *Executor) Submit(work Work) {
	select {
	case <-e.done:
		return
	default:
	}
	e.pending.Add(1)
	e.pool.Submit(func() {
		commit := e.runWork(work)
		if commit == nil {
			// Still queued so pending only drops on the commit context and
			// Settle wakes up.
			commit = noCommit
		}
		select {
		case e.commits <- commit:
		case <-e.done:
			e.pending.Add(-1)
		}
	})
}

func (e *Executor) runWork(work Work) (commit CommitFunc) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("background work panicked", zap.Any("panic", r))
			commit = nil
		}
	}()
	return work()
}

func (e *Executor) apply(commit CommitFunc) {
	defer e.pending.Add(-1)
	commit()
}

// Run applies commits until ctx is done or the executor is closed.
func (e *Executor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.done:
			return nil
		case c := <-e.commits:
			e.apply(c)
		}
	}
}

// Drain applies every commit that is already queued without blocking and
// returns how many ran, no-ops included. Meant to be called once per frame from a render loop.
func (e *Executor) Drain() int {
	n := 0
	for {
		select {
		case c := <-e.commits:
			e.apply(c)
			n++
		default:
			return n
		}
	}
}

// Settle applies commits until no submitted work remains, including work
// submitted by the commits themselves.
func (e *Executor) Settle(ctx context.Context) error {
	for e.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.done:
			return nil
		case c := <-e.commits:
			e.apply(c)
		}
	}
	return nil
}

// Pending returns the number of submitted tasks whose commit has not run.
func (e *Executor) Pending() int64 { return e.pending.Load() }

// Close stops accepting work, drops queued commits and waits for running
// workers to finish.
func (e *Executor) Close() {
	e.once.Do(func() {
		close(e.done)
		e.pool.StopAndWait()
	})
}
