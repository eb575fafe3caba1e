// Package workerpool provides the resampler's data-parallel fan-out: a
// bounded goroutine pool (ForEachIndex, used by the unweighting pass) and
// a two-way fork/join (Go, used by VP-tree subtree construction).
// Pool jobs run across a buffered channel with sync.WaitGroup fan-in and
// atomic progress counters.
package workerpool

import (
	"sync"
	"sync/atomic"
)

// Pool runs jobs across a fixed number of worker goroutines.
type Pool struct {
	workers int

	// Occupancy tracks the number of jobs currently executing across
	// ForEachIndex calls on this pool.
	Occupancy Counter

	// Probe, if set, is called from a worker goroutine with the current
	// Occupancy value every time a job starts, for live reporting (e.g.
	// into a gauge) of how saturated the pool is during a call.
	Probe func(inFlight int64)
}

// New creates a pool with the given worker count. A count <= 0 defaults
// to 1 (sequential execution).
func New(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Workers returns the configured worker count.
func (p *Pool) Workers() int { return p.workers }

// ForEachIndex runs fn(i) for every i in [0, n), distributing work across
// the pool's workers, and blocks until all calls complete.
func (p *Pool) ForEachIndex(n int, fn func(i int)) {
	if n == 0 {
		return
	}
	jobs := make(chan int, n)
	var wg sync.WaitGroup

	workers := p.workers
	if workers > n {
		workers = n
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				inFlight := p.Occupancy.Add(1)
				if p.Probe != nil {
					p.Probe(inFlight)
				}
				fn(i)
				p.Occupancy.Add(-1)
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// Go runs fn on its own goroutine and returns a func that blocks until
// fn has returned, for two-way fan-out such as VP-tree subtree
// construction (inside/outside built concurrently, joined before the
// parent node is materialised).
func Go(fn func()) (join func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	return func() { <-done }
}

// Counter is a simple atomic progress counter shared across workers.
type Counter struct {
	v int64
}

// Add increments the counter by delta and returns the new value.
func (c *Counter) Add(delta int64) int64 { return atomic.AddInt64(&c.v, delta) }

// Load returns the current value.
func (c *Counter) Load() int64 { return atomic.LoadInt64(&c.v) }
