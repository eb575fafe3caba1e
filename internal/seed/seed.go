// Package seed implements the seed selector: enumerating event indices
// in one of three canonical orders over a weight-sign filter, capped to
// bounded batches so a long tail of seeds never stalls the worker pool.
package seed

import (
	"context"
	"sort"

	"golang.org/x/time/rate"

	"github.com/hep-tools/cresample/internal/event"
)

// Filter selects which events are eligible seeds by central-weight sign.
type Filter int

const (
	Negative Filter = iota
	Positive
	All
)

func (f Filter) matches(w float64) bool {
	switch f {
	case Negative:
		return w < 0
	case Positive:
		return w > 0
	default:
		return true
	}
}

// Terminated reports whether a seed with central weight w has already
// reached the sign this filter is seeking, and so requires no cell to be
// built around it.
func (f Filter) Terminated(w float64) bool {
	switch f {
	case Negative:
		return w >= 0
	case Positive:
		return w <= 0
	default:
		return false
	}
}

// Order is the single canonical set of seed-selector orderings.
type Order int

const (
	// Next yields indices in input order.
	Next Order = iota
	// LargestAbsWeightFirst yields indices ascending by signed central
	// weight (most-negative first when filtering to negatives).
	LargestAbsWeightFirst
	// SmallestAbsWeightFirst yields indices descending by signed central
	// weight (least-negative first when filtering to negatives).
	SmallestAbsWeightFirst
)

// MaxBatch is the cap on indices in each batch returned by Batches, so
// long tails of seeds don't stall a parallel worker pool consuming them.
const MaxBatch = 64

// Selector enumerates eligible seed indices in the configured order.
type Selector struct {
	order  Order
	filter Filter
}

// New constructs a selector for the given order and filter.
func New(order Order, filter Filter) *Selector {
	return &Selector{order: order, filter: filter}
}

// Select returns every index in events matching the filter, ordered per
// the selector's Order. The result is not batched; callers that need
// bounded batches should use Batches.
func (s *Selector) Select(events []*event.Event) []int {
	var indices []int
	for i, e := range events {
		if s.filter.matches(e.CentralWeight()) {
			indices = append(indices, i)
		}
	}

	switch s.order {
	case Next:
		// Already in input order.
	case LargestAbsWeightFirst:
		sort.Slice(indices, func(i, j int) bool {
			return events[indices[i]].CentralWeight() < events[indices[j]].CentralWeight()
		})
	case SmallestAbsWeightFirst:
		sort.Slice(indices, func(i, j int) bool {
			return events[indices[i]].CentralWeight() > events[indices[j]].CentralWeight()
		})
	}
	return indices
}

// Batches splits Select's result into chunks of at most MaxBatch indices,
// preserving order across chunk boundaries.
func (s *Selector) Batches(events []*event.Event) [][]int {
	all := s.Select(events)
	if len(all) == 0 {
		return nil
	}

	var batches [][]int
	for start := 0; start < len(all); start += MaxBatch {
		end := start + MaxBatch
		if end > len(all) {
			end = len(all)
		}
		batches = append(batches, all[start:end])
	}
	return batches
}

// EmitBatches yields Batches' result one batch at a time over ch,
// pacing emission through limiter so a downstream worker pool already
// saturated by one region's cells is never handed a second batch before
// it can keep up. Closes ch and returns when all batches have been sent
// or ctx is cancelled.
func (s *Selector) EmitBatches(ctx context.Context, events []*event.Event, limiter *rate.Limiter, ch chan<- []int) error {
	defer close(ch)
	for _, batch := range s.Batches(events) {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
		select {
		case ch <- batch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
