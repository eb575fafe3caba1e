// Package unweight implements the optional post-resampling unweighting
// pass: events below a minimum absolute weight are kept probabilistically
// and rescaled to that minimum, driven by the same worker pool as the
// resampler driver. Off by default; never runs as part of the core
// resampling loop.
package unweight

import (
	"math"
	"math/rand"

	"github.com/hep-tools/cresample/internal/event"
	"github.com/hep-tools/cresample/internal/obsmetrics"
	"github.com/hep-tools/cresample/internal/workerpool"
)

// Config parameterises one unweighting pass.
type Config struct {
	MinWeight float64 // w_min; must be > 0
	Source    *rand.Rand
	Pool      *workerpool.Pool
	Metrics   *obsmetrics.Metrics // optional; reports Pool occupancy if set
}

// Result reports which events survived the pass, in input order.
type Result struct {
	Kept []*event.Event
}

// Run applies the unweighting rule to every event: events with
// |weight| >= MinWeight pass through unchanged; events with
// |weight| < MinWeight are kept with probability |weight| / MinWeight and
// rescaled to sign(weight) * MinWeight, or dropped otherwise. A final
// pass then rescales every surviving event's central weight by
// orig_wt_sum/final_wt_sum so the total weight across all original
// events, including the ones just dropped, is preserved exactly rather
// than only in expectation.
//
// Per-event coin flips draw from cfg.Source sequentially in event order
// before dispatch, so the outcome is reproducible regardless of how the
// worker pool schedules the subsequent rescale work.
func Run(events []*event.Event, cfg Config) Result {
	if cfg.MinWeight == 0 || len(events) == 0 {
		return Result{Kept: events}
	}

	if cfg.Metrics != nil {
		cfg.Pool.Probe = func(inFlight int64) {
			cfg.Metrics.WorkerPoolOccupancy.WithLabelValues("unweight").Set(float64(inFlight))
		}
	}

	var origSum float64
	for _, e := range events {
		origSum += e.CentralWeight()
	}

	keep := make([]bool, len(events))
	for i, e := range events {
		w := e.CentralWeight()
		if math.Abs(w) >= cfg.MinWeight {
			keep[i] = true
			continue
		}
		prob := math.Abs(w) / cfg.MinWeight
		keep[i] = cfg.Source.Float64() < prob
	}

	cfg.Pool.ForEachIndex(len(events), func(i int) {
		if !keep[i] {
			return
		}
		e := events[i]
		weights := e.Weights()
		w := weights[0]
		if math.Abs(w) >= cfg.MinWeight {
			return
		}
		sign := 1.0
		if w < 0 {
			sign = -1.0
		}
		weights[0] = sign * cfg.MinWeight

		e.Lock()
		_ = e.SetWeights(weights)
		e.Unlock()
	})

	var kept []*event.Event
	for i, e := range events {
		if keep[i] {
			kept = append(kept, e)
		}
	}

	var finalSum float64
	for _, e := range kept {
		finalSum += e.CentralWeight()
	}
	if finalSum != 0 {
		reweight := origSum / finalSum
		cfg.Pool.ForEachIndex(len(kept), func(i int) {
			e := kept[i]
			weights := e.Weights()
			weights[0] *= reweight

			e.Lock()
			_ = e.SetWeights(weights)
			e.Unlock()
		})
	}

	return Result{Kept: kept}
}
