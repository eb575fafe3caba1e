// Package cell implements the cell builder and resample operation: growing
// a cell from a negative-weight seed by accreting nearest remaining
// events until the cell weight turns non-negative or a radius bound is
// hit, then averaging weights componentwise across the cell.
package cell

import (
	"sort"

	"github.com/hep-tools/cresample/internal/event"
	"github.com/hep-tools/cresample/internal/vptree"
)

// Cell is the transient result of growing from one seed. It holds the
// caller's event slice and indices into it; it is consumed immediately by
// Resample and never persisted.
type Cell struct {
	Events  []*event.Event
	Members []int // indices into Events, first entry is the seed
	WeightSum float64
	Radius    float64
}

// Build grows a cell from seed using searcher for nearest-neighbour
// candidates, stopping once the central-weight sum is non-negative or no
// candidate lies within maxRadius. maxRadius may be +Inf.
//
// excluded is shared across cells built in the same resampling pass: once
// an index is accreted into a cell it is marked so subsequent cells never
// reuse it.
func Build(events []*event.Event, seed int, searcher vptree.Searcher, excluded *vptree.Exclusion, maxRadius float64) *Cell {
	c := &Cell{
		Events:    events,
		Members:   []int{seed},
		WeightSum: events[seed].CentralWeight(),
		Radius:    0,
	}
	excluded.Mark(seed)

	if c.WeightSum >= 0 {
		return c
	}

	for _, cand := range searcher.RangeSearch(seed, maxRadius, excluded) {
		if cand.Dist > maxRadius {
			break
		}
		c.Members = append(c.Members, cand.Index)
		c.Radius = cand.Dist
		c.WeightSum += events[cand.Index].CentralWeight()
		excluded.Mark(cand.Index)

		if c.WeightSum >= 0 {
			break
		}
	}

	return c
}

// Resample averages the full weight vector (not only the central weight)
// componentwise across the cell's members and writes the mean back to
// every member. Exclusive locks are acquired in ascending event-id order
// so that two cells sharing members cannot deadlock on lock acquisition
// order.
func (c *Cell) Resample() {
	if len(c.Members) <= 1 {
		return
	}

	ordered := make([]int, len(c.Members))
	copy(ordered, c.Members)
	sort.Slice(ordered, func(i, j int) bool {
		return c.Events[ordered[i]].ID() < c.Events[ordered[j]].ID()
	})

	// Weights() takes each member's shared lock itself, so the mean is
	// computed before the exclusive locks below are acquired.
	nWeights := c.Events[ordered[0]].NumWeights()
	mean := make([]float64, nWeights)
	for _, idx := range ordered {
		w := c.Events[idx].Weights()
		for i, v := range w {
			mean[i] += v
		}
	}
	n := float64(len(ordered))
	for i := range mean {
		mean[i] /= n
	}

	for _, idx := range ordered {
		c.Events[idx].Lock()
	}
	defer func() {
		for _, idx := range ordered {
			c.Events[idx].Unlock()
		}
	}()

	for _, idx := range ordered {
		// SetWeights requires the exclusive lock already held above.
		_ = c.Events[idx].SetWeights(mean)
	}
}

// IsTerminal reports whether the cell reached the non-negative-sum
// termination condition, as opposed to stopping because no further
// candidate lay within the radius bound. Not an error either way; the
// resampler driver's diagnostics collector counts non-terminal cells
// separately.
func (c *Cell) IsTerminal() bool {
	return c.WeightSum >= 0
}
