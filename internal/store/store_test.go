package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeLines(t *testing.T, path string, recs []Record) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	for _, r := range recs {
		b, err := json.Marshal(r)
		if err != nil {
			t.Fatal(err)
		}
		f.Write(b)
		f.Write([]byte("\n"))
	}
}

func readLines(t *testing.T, path string) []Record {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var out []Record
	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		var r Record
		if err := dec.Decode(&r); err != nil {
			break
		}
		out = append(out, r)
	}
	return out
}

func TestUpdateNextWeightsPreservesNonWeightFields(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.jsonl")
	out := filepath.Join(dir, "out.jsonl")

	writeLines(t, in, []Record{
		{ID: 0, Weights: []float64{-1.5}, NonWeightFields: json.RawMessage(`{"particles":[1,2,3]}`)},
		{ID: 1, Weights: []float64{2.0}, NonWeightFields: json.RawMessage(`{"particles":[4,5]}`)},
	})

	s := NewFileStore(in, out)
	ok, err := s.UpdateNextWeights([]float64{0.5})
	if err != nil || !ok {
		t.Fatalf("UpdateNextWeights: ok=%v err=%v", ok, err)
	}
	ok, err = s.UpdateNextWeights([]float64{1.0})
	if err != nil || !ok {
		t.Fatalf("UpdateNextWeights: ok=%v err=%v", ok, err)
	}
	ok, _ = s.UpdateNextWeights([]float64{0})
	if ok {
		t.Fatal("expected false at end of input")
	}
	if err := s.FinishWeightUpdate(); err != nil {
		t.Fatal(err)
	}

	written := readLines(t, out)
	if len(written) != 2 {
		t.Fatalf("expected 2 records written, got %d", len(written))
	}
	if written[0].Weights[0] != 0.5 || written[1].Weights[0] != 1.0 {
		t.Errorf("weights not substituted: %+v", written)
	}
	if string(written[0].NonWeightFields) != `{"particles":[1,2,3]}` {
		t.Errorf("non-weight fields not preserved: %s", written[0].NonWeightFields)
	}
}

func TestUpdateAllWeightsRewindsAndCountsRecords(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.jsonl")
	out := filepath.Join(dir, "out.jsonl")

	writeLines(t, in, []Record{
		{ID: 0, Weights: []float64{-1}},
		{ID: 1, Weights: []float64{1}},
		{ID: 2, Weights: []float64{2}},
	})

	s := NewFileStore(in, out)
	n, err := s.UpdateAllWeights([][]float64{{0}, {0}, {0}})
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("UpdateAllWeights returned %d, want 3", n)
	}
}

func TestUpdateNextWeightsRejectsCountMismatch(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.jsonl")
	out := filepath.Join(dir, "out.jsonl")

	writeLines(t, in, []Record{{ID: 0, Weights: []float64{-1, 2}}})

	s := NewFileStore(in, out)
	if _, err := s.UpdateNextWeights([]float64{1}); err == nil {
		t.Error("expected error on weight-count mismatch")
	}
}
