package workerpool

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestForEachIndexVisitsEveryIndexExactlyOnce(t *testing.T) {
	n := 500
	var seen sync.Map
	p := New(8)
	p.ForEachIndex(n, func(i int) {
		if _, dup := seen.LoadOrStore(i, true); dup {
			t.Errorf("index %d visited more than once", i)
		}
	})
	for i := 0; i < n; i++ {
		if _, ok := seen.Load(i); !ok {
			t.Errorf("index %d never visited", i)
		}
	}
}

func TestForEachIndexZeroIsNoOp(t *testing.T) {
	p := New(4)
	p.ForEachIndex(0, func(i int) {
		t.Errorf("fn should not be called for n=0, got i=%d", i)
	})
}

func TestOccupancyReturnsToZeroAfterCompletion(t *testing.T) {
	p := New(4)
	p.ForEachIndex(50, func(i int) {})
	if got := p.Occupancy.Load(); got != 0 {
		t.Errorf("expected occupancy to settle at 0, got %d", got)
	}
}

func TestProbeObservesInFlightJobs(t *testing.T) {
	p := New(1) // single worker: in-flight count is always exactly 1 while a job runs
	var maxSeen int64
	p.Probe = func(inFlight int64) {
		for {
			old := atomic.LoadInt64(&maxSeen)
			if inFlight <= old || atomic.CompareAndSwapInt64(&maxSeen, old, inFlight) {
				return
			}
		}
	}
	p.ForEachIndex(10, func(i int) {})
	if maxSeen != 1 {
		t.Errorf("expected single-worker pool to report in-flight=1, got %d", maxSeen)
	}
}

func TestCounterAddAndLoad(t *testing.T) {
	var c Counter
	c.Add(3)
	c.Add(-1)
	if got := c.Load(); got != 2 {
		t.Errorf("Counter.Load() = %d, want 2", got)
	}
}
