// Package pool gives the engine an explicit worker-pool handle for
// parallel chunk work (hashing, compression, reads, writes), instead of a
// hidden package-level singleton. Per spec §9's "Global mutable state"
// design note, a Pool is configured once (at repository Open/Init) and
// threaded through the chunker and chunk store from there.
package pool

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool bounds the concurrency of fan-out work across the engine. It wraps
// golang.org/x/sync/errgroup, already a teacher dependency, rather than a
// hand-rolled semaphore-and-WaitGroup pair.
type Pool struct {
	limit int
}

// New returns a Pool capped at limit concurrent tasks. A limit <= 0 uses
// runtime.GOMAXPROCS(0) as a sane per-host default.
func New(limit int) *Pool {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	return &Pool{limit: limit}
}

// Go runs fns concurrently, bounded by the pool's limit, and returns the
// first error encountered (if any), cancelling the shared context for the
// remaining in-flight tasks. This is the fan-out primitive used by the
// chunker (hash N offsets of one file) and the chunk store (read/write N
// chunks of one or more files).
func (p *Pool) Go(ctx context.Context, fns []func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)
	for _, fn := range fns {
		fn := fn
		g.Go(func() error { return fn(gctx) })
	}
	return g.Wait()
}

// Limit returns the pool's configured concurrency cap.
func (p *Pool) Limit() int { return p.limit }
