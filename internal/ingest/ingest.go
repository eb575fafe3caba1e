// Package ingest converts raw store.Record values into internal Event
// objects, made concrete for the reference line-delimited JSON format.
// Clustering of jets/leptons/photons is out of scope here; the converter
// only extracts the final particle list the core model needs.
package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/hep-tools/cresample/internal/event"
	"github.com/hep-tools/cresample/internal/fourvector"
	"github.com/hep-tools/cresample/internal/rerrors"
	"github.com/hep-tools/cresample/internal/store"
)

// OutgoingStatus is the particle status code the converter treats as
// "outgoing" and therefore visible to the core; every other status is
// dropped.
const OutgoingStatus = 1

type particleRecord struct {
	PID    int     `json:"pid"`
	Status int     `json:"status"`
	E      float64 `json:"e"`
	Px     float64 `json:"px"`
	Py     float64 `json:"py"`
	Pz     float64 `json:"pz"`
}

type eventBody struct {
	Particles []particleRecord `json:"particles"`
}

// Converter builds Event objects from store.Records, optionally
// requesting that named additional weights be retained for the
// weight-update pass.
type Converter struct {
	WeightNames []string
}

// New constructs a converter, optionally retaining the given additional
// named weights (multiweight mode).
func New(weightNames []string) *Converter {
	return &Converter{WeightNames: weightNames}
}

// Convert maps one raw record to an Event. The first entry of
// rec.Weights is always the central weight; entries named in
// c.WeightNames (matched against rec.WeightNames) are retained in the
// resulting Event's weight vector in declared order, so the store can
// write them back after resampling.
func (c *Converter) Convert(rec store.Record) (*event.Event, error) {
	weights, err := c.selectWeights(rec)
	if err != nil {
		return nil, err
	}

	var body eventBody
	if err := json.Unmarshal(rec.NonWeightFields, &body); err != nil {
		return nil, &rerrors.ConversionError{RecordID: rec.ID, Reason: "malformed event body", Err: err}
	}

	e := event.New(rec.ID, weights)
	for _, p := range body.Particles {
		if p.Status != OutgoingStatus {
			continue
		}
		e.AppendOutgoing(p.PID, fourvector.New(p.E, p.Px, p.Py, p.Pz))
	}
	return e, nil
}

func (c *Converter) selectWeights(rec store.Record) ([]float64, error) {
	if len(rec.Weights) == 0 {
		return nil, &rerrors.ConversionError{RecordID: rec.ID, Reason: "record has no weights"}
	}
	if len(c.WeightNames) == 0 {
		return []float64{rec.Weights[0]}, nil
	}

	byName := make(map[string]float64, len(rec.WeightNames))
	for i, name := range rec.WeightNames {
		if i < len(rec.Weights) {
			byName[name] = rec.Weights[i]
		}
	}

	selected := make([]float64, 1, 1+len(c.WeightNames))
	selected[0] = rec.Weights[0]
	for _, name := range c.WeightNames {
		w, ok := byName[name]
		if !ok {
			return nil, &rerrors.ConversionError{RecordID: rec.ID,
				Reason: fmt.Sprintf("requested weight %q not present in record (has %v)", name, rec.WeightNames)}
		}
		selected = append(selected, w)
	}
	return selected, nil
}
