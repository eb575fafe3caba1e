package resampler

import (
	"math"
	"testing"

	"github.com/hep-tools/cresample/internal/event"
	"github.com/hep-tools/cresample/internal/fourvector"
	"github.com/hep-tools/cresample/internal/seed"
)

func makeCollinearEvents(weights []float64) []*event.Event {
	events := make([]*event.Event, len(weights))
	for i, w := range weights {
		e := event.New(i, []float64{w})
		pt := float64(i + 1)
		e.AppendOutgoing(11, fourvector.New(pt, pt, 0, 0))
		events[i] = e
	}
	return events
}

func TestRunConservesWeightSum(t *testing.T) {
	events := makeCollinearEvents([]float64{3, -1})
	var before float64
	for _, e := range events {
		before += e.CentralWeight()
	}

	Run(events, Config{
		Tau:        1,
		MaxRadius:  math.Inf(1),
		SeedFilter: seed.Negative,
		SeedOrder:  seed.Next,
	})

	var after float64
	for _, e := range events {
		after += e.CentralWeight()
	}
	if math.Abs(before-after) > 1e-9 {
		t.Errorf("weight sum not conserved: before=%v after=%v", before, after)
	}
}

func TestRunEmptyEventsIsNoOp(t *testing.T) {
	summary := Run(nil, Config{}).Snapshot()
	if summary.TotalCells != 0 {
		t.Errorf("expected no cells for empty input, got %d", summary.TotalCells)
	}
}

func TestRunSkipsSeedsAlreadyTerminated(t *testing.T) {
	events := makeCollinearEvents([]float64{1, 2, 3}) // all positive, filter is Negative
	diag := Run(events, Config{
		Tau:        1,
		MaxRadius:  math.Inf(1),
		SeedFilter: seed.Negative,
		SeedOrder:  seed.Next,
	})
	if diag.Snapshot().TotalCells != 0 {
		t.Errorf("expected no cells built when no seed matches the filter")
	}
}
