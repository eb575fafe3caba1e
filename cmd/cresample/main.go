// Command cresample is the resampler CLI: subcommands for running a
// resampling pass, building and applying a space partition, and
// unweighting a resampled sample. Operates directly on line-delimited
// JSON event files rather than talking to a running service.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/hep-tools/cresample/internal/distance"
	"github.com/hep-tools/cresample/internal/event"
	"github.com/hep-tools/cresample/internal/ingest"
	"github.com/hep-tools/cresample/internal/obslog"
	"github.com/hep-tools/cresample/internal/obsmetrics"
	"github.com/hep-tools/cresample/internal/partition"
	"github.com/hep-tools/cresample/internal/rconfig"
	"github.com/hep-tools/cresample/internal/resampler"
	"github.com/hep-tools/cresample/internal/seed"
	"github.com/hep-tools/cresample/internal/store"
	"github.com/hep-tools/cresample/internal/unweight"
	"github.com/hep-tools/cresample/internal/workerpool"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "resample":
		runResample(os.Args[2:])
	case "partition":
		runPartition(os.Args[2:])
	case "classify":
		runClassify(os.Args[2:])
	case "unweight":
		runUnweight(os.Args[2:])
	case "version":
		fmt.Printf("cresample version %s\n", version)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		showUsage()
		os.Exit(1)
	}
}

func runResample(args []string) {
	fs := flag.NewFlagSet("resample", flag.ExitOnError)
	defaultLevel := "info"
	if env := os.Getenv("CRES_LOG_LEVEL"); env != "" {
		defaultLevel = env
	}
	var (
		in          = fs.String("in", "", "input event file (required)")
		configPath  = fs.String("config", "", "YAML config file layered over defaults")
		logLevel    = fs.String("log-level", defaultLevel, "off|error|warn|info|debug|trace; defaults to $CRES_LOG_LEVEL, else info")
		partitionIn = fs.String("partition", "", "optional partition document to resample per region")
		seedRate    = fs.Float64("seed-rate", 0, "max seed batches/sec handed to the build loop; 0 is unlimited")
	)
	fs.Parse(args)

	if *in == "" {
		fmt.Println("Error: -in is required")
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	logger := obslog.New(obslog.ParseLevel(*logLevel), os.Stderr)
	metrics := obsmetrics.New()

	var seedLimiter *rate.Limiter
	if *seedRate > 0 {
		seedLimiter = rate.NewLimiter(rate.Limit(*seedRate), seed.MaxBatch)
	}

	events, err := loadEvents(*in, cfg)
	failOn(err)
	metrics.EventsIngested.Add(float64(len(events)))

	if *partitionIn != "" {
		part, err := partition.Load(*partitionIn)
		failOn(err)
		regions := make([][]*event.Event, part.NumRegions())
		for _, e := range events {
			r := part.Region(e)
			regions[r] = append(regions[r], e)
		}
		for r, regionEvents := range regions {
			metrics.RegionEventCount.WithLabelValues(fmt.Sprintf("%d", r)).Set(float64(len(regionEvents)))
			logger.Info("resampling region", map[string]interface{}{"region": r, "events": len(regionEvents)})
			start := time.Now()
			resampler.Run(regionEvents, resamplerConfig(cfg, logger, metrics, seedLimiter))
			metrics.RecordPass(time.Since(start))
		}
	} else {
		start := time.Now()
		diag := resampler.Run(events, resamplerConfig(cfg, logger, metrics, seedLimiter))
		metrics.RecordPass(time.Since(start))
		summary := diag.Snapshot()
		fmt.Printf("cells: %d, non-terminal: %d, singletons: %d, median radius: %.6g\n",
			summary.TotalCells, summary.NonTerminalCells, summary.SingletonCells, summary.MedianRadius)
	}

	out := *in + cfg.Store.OutputSuffix
	failOn(writeBack(*in, out, events))
	metrics.EventsWritten.Add(float64(len(events)))
	fmt.Printf("wrote %s\n", out)

	snapshot := metrics.Snapshot()
	fields := make(map[string]interface{}, len(snapshot))
	for k, v := range snapshot {
		fields[k] = v
	}
	logger.Info("metrics snapshot", fields)
}

func runPartition(args []string) {
	fs := flag.NewFlagSet("partition", flag.ExitOnError)
	var (
		in    = fs.String("in", "", "input event file (required)")
		out   = fs.String("out", "partition.json", "output partition document")
		tau   = fs.Float64("tau", 1.0, "EWSP tau parameter")
		depth = fs.Int("depth", 2, "partition depth k, yielding 2^k regions")
	)
	fs.Parse(args)

	if *in == "" {
		fmt.Println("Error: -in is required")
		fs.Usage()
		os.Exit(1)
	}

	cfg := rconfig.Default()
	cfg.Distance.Tau = *tau
	events, err := loadEvents(*in, cfg)
	failOn(err)

	var negative []*event.Event
	for _, e := range events {
		if e.CentralWeight() < 0 {
			negative = append(negative, e)
		}
	}

	part, err := partition.Build(negative, *depth, distance.NewEWSP(*tau))
	failOn(err)
	failOn(part.Save(*out))
	fmt.Printf("wrote partition with %d regions to %s\n", part.NumRegions(), *out)
}

func runClassify(args []string) {
	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	var (
		in          = fs.String("in", "", "input event file (required)")
		partitionIn = fs.String("partition", "", "partition document (required)")
		outPrefix   = fs.String("out-prefix", "region", "output file prefix: prefix.<region>.suffix")
		outSuffix   = fs.String("out-suffix", ".jsonl", "output file suffix")
	)
	fs.Parse(args)

	if *in == "" || *partitionIn == "" {
		fmt.Println("Error: -in and -partition are required")
		fs.Usage()
		os.Exit(1)
	}

	part, err := partition.Load(*partitionIn)
	failOn(err)

	cfg := rconfig.Default()
	events, err := loadEvents(*in, cfg)
	failOn(err)

	records, err := store.ReadAll(*in)
	failOn(err)

	byRegion := make(map[int][]store.Record)
	for i, e := range events {
		r := part.Region(e)
		byRegion[r] = append(byRegion[r], records[i])
	}

	for r, recs := range byRegion {
		path := fmt.Sprintf("%s.%d%s", *outPrefix, r, *outSuffix)
		failOn(writeRecords(path, recs))
		fmt.Printf("region %d: %d events -> %s\n", r, len(recs), path)
	}
}

func runUnweight(args []string) {
	fs := flag.NewFlagSet("unweight", flag.ExitOnError)
	var (
		in        = fs.String("in", "", "input event file (required)")
		out       = fs.String("out", "", "output event file (required)")
		minWeight = fs.Float64("min-weight", 0, "minimum absolute weight w_min (required, > 0)")
		seedVal   = fs.Int64("seed", 1, "random seed")
	)
	fs.Parse(args)

	if *in == "" || *out == "" || *minWeight <= 0 {
		fmt.Println("Error: -in, -out and a positive -min-weight are required")
		fs.Usage()
		os.Exit(1)
	}

	cfg := rconfig.Default()
	metrics := obsmetrics.New()
	events, err := loadEvents(*in, cfg)
	failOn(err)
	metrics.EventsIngested.Add(float64(len(events)))

	result := unweight.Run(events, unweight.Config{
		MinWeight: *minWeight,
		Source:    rand.New(rand.NewSource(*seedVal)),
		Pool:      workerpool.New(cfg.Worker.PoolSize),
		Metrics:   metrics,
	})
	fmt.Printf("kept %d/%d events\n", len(result.Kept), len(events))

	// Dropped events leave gaps, so kept records are selected and written
	// directly rather than through writeBack; only the central weight
	// changes during unweighting.
	records, err := store.ReadAll(*in)
	failOn(err)
	kept := make(map[*event.Event]bool, len(result.Kept))
	for _, e := range result.Kept {
		kept[e] = true
	}
	var keptRecords []store.Record
	for i, e := range events {
		if kept[e] {
			records[i].Weights[0] = e.CentralWeight()
			keptRecords = append(keptRecords, records[i])
		}
	}
	failOn(writeRecords(*out, keptRecords))
	metrics.EventsWritten.Add(float64(len(result.Kept)))

	logger := obslog.New(obslog.ParseLevel(os.Getenv("CRES_LOG_LEVEL")), os.Stderr)
	snapshot := metrics.Snapshot()
	fields := make(map[string]interface{}, len(snapshot))
	for k, v := range snapshot {
		fields[k] = v
	}
	logger.Info("metrics snapshot", fields)
}

func loadConfig(path string) *rconfig.Config {
	var cfg *rconfig.Config
	if path != "" {
		loaded, err := rconfig.LoadFromFile(path)
		failOn(err)
		cfg = loaded
	} else {
		cfg = rconfig.LoadFromEnv()
	}
	failOn(cfg.Validate())
	return cfg
}

func loadEvents(path string, cfg *rconfig.Config) ([]*event.Event, error) {
	records, err := store.ReadAll(path)
	if err != nil {
		return nil, err
	}
	conv := ingest.New(cfg.Store.NamedWeights)
	events := make([]*event.Event, len(records))
	for i, rec := range records {
		e, err := conv.Convert(rec)
		if err != nil {
			return nil, err
		}
		events[i] = e
	}
	return events, nil
}

// writeBack re-reads in for its non-weight content and writes out with
// each event's current weight vector substituted, via the store's
// update-all-weights protocol. events must be in the same order as the
// records in, which loadEvents guarantees.
func writeBack(in, out string, events []*event.Event) error {
	weights := make([][]float64, len(events))
	for i, e := range events {
		weights[i] = e.Weights()
	}
	s := store.NewFileStore(in, out)
	_, err := s.UpdateAllWeights(weights)
	return err
}

// writeRecords writes records verbatim as line-delimited JSON; classify
// only re-partitions existing records into per-region files and never
// touches their weights, and unweight passes its kept records with their
// central weights already updated.
func writeRecords(path string, records []store.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, r := range records {
		line, err := json.Marshal(r)
		if err != nil {
			return err
		}
		if _, err := w.Write(line); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return w.Flush()
}

func resamplerConfig(cfg *rconfig.Config, logger *obslog.Logger, metrics *obsmetrics.Metrics, seedLimiter *rate.Limiter) resampler.Config {
	return resampler.Config{
		Tau:           cfg.Distance.Tau,
		MaxRadius:     cfg.Cell.ResolvedMaxRadius(),
		SeedFilter:    cfg.Cell.SeedFilter,
		SeedOrder:     cfg.Cell.SeedOrder,
		Logger:        logger,
		Metrics:       metrics,
		SeedRateLimit: seedLimiter,
	}
}

func failOn(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`cresample - cell resampling for Monte Carlo event samples

Usage:
  cresample <command> [options]

Commands:
  resample    Resample events from an input file, writing updated weights
  partition   Build a space partition from the negative-weight subset
  classify    Route events to region-specific files using a saved partition
  unweight    Apply probabilistic unweighting to a resampled sample
  version     Show version
  help        Show this help message

Examples:
  cresample resample -in events.jsonl -config cresample.yaml
  cresample partition -in events.jsonl -depth 3 -out partition.json
  cresample classify -in events.jsonl -partition partition.json -out-prefix region
  cresample unweight -in events.jsonl.resampled -out events.unweighted.jsonl -min-weight 0.01`)
}
