// Package celldiag collects summary statistics over the cells a
// resampling pass builds: how many were built, how many never reached a
// non-negative weight sum, how many were singletons, and the radius
// distribution. Kept in-process rather than routed through Prometheus
// since these numbers are reported once per pass, not streamed.
package celldiag

import (
	"sort"
	"sync"

	"github.com/hep-tools/cresample/internal/cell"
)

// Collector accumulates per-cell statistics behind a mutex so concurrent
// resampler workers can report as cells finish.
type Collector struct {
	mu          sync.Mutex
	radii       []float64
	total       int
	nonTerminal int
	singletons  int
}

// New returns an empty Collector.
func New() *Collector {
	return &Collector{}
}

// Observe records one completed cell.
func (c *Collector) Observe(built *cell.Cell) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total++
	c.radii = append(c.radii, built.Radius)
	if !built.IsTerminal() {
		c.nonTerminal++
	}
	if len(built.Members) == 1 {
		c.singletons++
	}
}

// Summary is a snapshot of the statistics accumulated so far.
type Summary struct {
	TotalCells       int
	NonTerminalCells int
	SingletonCells   int
	MedianRadius     float64
}

// Snapshot returns the current statistics. MedianRadius is 0 if no cells
// have been observed.
func (c *Collector) Snapshot() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Summary{
		TotalCells:       c.total,
		NonTerminalCells: c.nonTerminal,
		SingletonCells:   c.singletons,
	}
	if len(c.radii) == 0 {
		return s
	}

	sorted := make([]float64, len(c.radii))
	copy(sorted, c.radii)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		s.MedianRadius = sorted[mid]
	} else {
		s.MedianRadius = (sorted[mid-1] + sorted[mid]) / 2
	}
	return s
}
