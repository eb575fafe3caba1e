// Package resampler implements the resampler driver: it orchestrates
// cell construction over a region's events, reporting each completed
// cell to a diagnostics collector and logging the pass's initial cross
// section and statistical error before it begins.
package resampler

import (
	"context"
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/hep-tools/cresample/internal/celldiag"
	"github.com/hep-tools/cresample/internal/cell"
	"github.com/hep-tools/cresample/internal/distance"
	"github.com/hep-tools/cresample/internal/event"
	"github.com/hep-tools/cresample/internal/obslog"
	"github.com/hep-tools/cresample/internal/obsmetrics"
	"github.com/hep-tools/cresample/internal/seed"
	"github.com/hep-tools/cresample/internal/vptree"
)

// Config parameterises one resampling pass over a region.
type Config struct {
	Tau           float64
	MaxRadius     float64
	SeedFilter    seed.Filter
	SeedOrder     seed.Order
	Normalisation float64 // global weight normalisation; 1 if unset
	Logger        *obslog.Logger
	Metrics       *obsmetrics.Metrics

	// SeedRateLimit paces how fast seed batches are handed to the build
	// loop below, e.g. to cap CPU usage on a shared machine. Nil means
	// unlimited (rate.Inf): batches are emitted as fast as they are
	// produced, degenerating to the plain MaxBatch-sized chunking.
	SeedRateLimit *rate.Limiter
}

// Run executes one resampling pass over events, returning the
// diagnostics collected for the pass. A nil or empty events slice, or a
// seed filter matching nothing, is a no-op per the failure-modes clause.
func Run(events []*event.Event, cfg Config) *celldiag.Collector {
	diag := celldiag.New()
	if len(events) == 0 {
		return diag
	}

	norm := cfg.Normalisation
	if norm == 0 {
		norm = 1
	}
	logInitialCrossSection(events, norm, cfg.Logger)

	dist := distance.NewEWSP(cfg.Tau)
	searcher := vptree.Build(len(events), func(i, j int) float64 {
		if cfg.Metrics == nil {
			return dist.Distance(events[i], events[j])
		}
		start := time.Now()
		d := dist.Distance(events[i], events[j])
		cfg.Metrics.RecordDistance(time.Since(start))
		return d
	})

	selector := seed.New(cfg.SeedOrder, cfg.SeedFilter)
	batches := selector.Batches(events)
	if len(batches) == 0 {
		return diag
	}

	limiter := cfg.SeedRateLimit
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, seed.MaxBatch)
	}
	batchCh := make(chan []int)
	go func() {
		_ = selector.EmitBatches(context.Background(), events, limiter, batchCh)
	}()

	excluded := vptree.NewExclusion(len(events))
	maxRadius := cfg.MaxRadius
	if maxRadius <= 0 {
		maxRadius = math.Inf(1)
	}

	for batch := range batchCh {
		for _, idx := range batch {
			if excluded.Has(idx) {
				continue
			}
			if cfg.SeedFilter.Terminated(events[idx].CentralWeight()) {
				continue
			}

			built := cell.Build(events, idx, searcher, excluded, maxRadius)
			built.Resample()
			diag.Observe(built)
			if cfg.Metrics != nil {
				cfg.Metrics.RecordCell(built.Radius, built.IsTerminal())
				cfg.Metrics.SeedsConsumed.Inc()
			}
			if cfg.Logger != nil && !built.IsTerminal() {
				cfg.Logger.Warn("cell did not reach target sign within radius cap",
					map[string]interface{}{"seed": idx, "radius": built.Radius, "weight_sum": built.WeightSum})
			}
		}
	}

	summary := diag.Snapshot()
	if cfg.Logger != nil {
		cfg.Logger.Info("resampling pass finished", map[string]interface{}{
			"cells":         summary.TotalCells,
			"non_terminal":  summary.NonTerminalCells,
			"singletons":    summary.SingletonCells,
			"median_radius": summary.MedianRadius,
		})
	}
	return diag
}

func logInitialCrossSection(events []*event.Event, norm float64, logger *obslog.Logger) {
	var sum, sumSq float64
	for _, e := range events {
		w := e.CentralWeight() * norm
		sum += w
		sumSq += w * w
	}
	if logger != nil {
		logger.Info("initial cross section", map[string]interface{}{
			"cross_section": sum,
			"stat_error":    math.Sqrt(sumSq),
		})
	}
}
