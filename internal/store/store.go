// Package store implements the weight-update protocol (rewind,
// next-record, update-next-weights, update-all-weights) over a
// line-delimited JSON event record format, the one format the resampler
// always compiles in. Grounded on original_source/storage.rs's
// FileStorage/UpdateWeights contract, reworked into a Go struct that
// scans the input with bufio.Scanner and writes the sink through a
// bufio.Writer instead of the Rust trait-object dispatch.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hep-tools/cresample/internal/rerrors"
)

// Record is one line-delimited JSON event record. NonWeightFields carries
// every key the reference format does not interpret, preserved verbatim
// across a read/write round trip.
type Record struct {
	ID              int             `json:"id"`
	Weights         []float64       `json:"weights"`
	WeightNames     []string        `json:"weight_names,omitempty"`
	NonWeightFields json.RawMessage `json:"event"`
}

// FileStore is a single-file event store backing the weight-update
// protocol: reads records from path on Rewind/nextRecord, and streams
// weight-updated copies to a sink file opened lazily on first write.
type FileStore struct {
	path       string
	sinkPath   string
	file       *os.File
	scanner    *bufio.Scanner
	sink       *os.File
	sinkWriter *bufio.Writer
}

// NewFileStore creates a store reading path and writing updates to
// sinkPath.
func NewFileStore(path, sinkPath string) *FileStore {
	return &FileStore{path: path, sinkPath: sinkPath}
}

// ReadAll reads every record from path in order, for callers that only
// need the initial ingest pass (no weight-update sink). It does not
// affect any FileStore built over the same path.
func ReadAll(path string) ([]Record, error) {
	s := &FileStore{path: path}
	if err := s.Rewind(); err != nil {
		return nil, err
	}
	defer s.file.Close()

	var records []Record
	for {
		rec, ok, err := s.nextRecord()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		records = append(records, *rec)
	}
	return records, nil
}

// Rewind positions the store at the first record, closing the input file
// left open from a previous pass. An open sink is left open, so records
// written after Rewind are appended to it; FinishWeightUpdate closes it.
func (s *FileStore) Rewind() error {
	if s.file != nil {
		s.file.Close()
	}
	f, err := os.Open(s.path)
	if err != nil {
		return &rerrors.IngestError{Path: s.path, Err: err}
	}
	s.file = f
	s.scanner = bufio.NewScanner(f)
	s.scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return nil
}

func (s *FileStore) nextRecord() (*Record, bool, error) {
	if s.scanner == nil {
		if err := s.Rewind(); err != nil {
			return nil, false, err
		}
	}
	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, false, &rerrors.IngestError{Path: s.path, Err: err}
		}
		return &rec, true, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, false, &rerrors.IngestError{Path: s.path, Err: err}
	}
	return nil, false, nil
}

func (s *FileStore) ensureSink() error {
	if s.sink != nil {
		return nil
	}
	f, err := os.Create(s.sinkPath)
	if err != nil {
		return &rerrors.WriteError{Path: s.sinkPath, Err: err}
	}
	s.sink = f
	s.sinkWriter = bufio.NewWriter(f)
	return nil
}

// UpdateNextWeights reads the next record, substitutes its central weight
// (and any NamedWeights requested, in declared order) from weights,
// writes the modified record to the sink, and reports whether a record
// was available.
func (s *FileStore) UpdateNextWeights(weights []float64) (bool, error) {
	rec, ok, err := s.nextRecord()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if len(weights) != len(rec.Weights) {
		return false, &rerrors.WriteError{Path: s.sinkPath, Err: fmt.Errorf(
			"weight count mismatch: record has %d, resampled has %d", len(rec.Weights), len(weights))}
	}
	rec.Weights = weights

	if err := s.ensureSink(); err != nil {
		return false, err
	}
	out, err := json.Marshal(rec)
	if err != nil {
		return false, &rerrors.WriteError{Path: s.sinkPath, Err: err}
	}
	if _, err := s.sinkWriter.Write(out); err != nil {
		return false, &rerrors.WriteError{Path: s.sinkPath, Err: err}
	}
	if err := s.sinkWriter.WriteByte('\n'); err != nil {
		return false, &rerrors.WriteError{Path: s.sinkPath, Err: err}
	}
	return true, nil
}

// UpdateAllWeights rewinds and applies weights (indexed by input order) to
// every record in turn, returning the number of records updated.
func (s *FileStore) UpdateAllWeights(weights [][]float64) (int, error) {
	if err := s.Rewind(); err != nil {
		return 0, err
	}
	n := 0
	for n < len(weights) {
		ok, err := s.UpdateNextWeights(weights[n])
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}
		n++
	}
	if err := s.FinishWeightUpdate(); err != nil {
		return n, err
	}
	return n, nil
}

// FinishWeightUpdate flushes and closes the sink, and the input file.
func (s *FileStore) FinishWeightUpdate() error {
	if s.sinkWriter != nil {
		if err := s.sinkWriter.Flush(); err != nil {
			return &rerrors.WriteError{Path: s.sinkPath, Err: err}
		}
	}
	if s.sink != nil {
		if err := s.sink.Close(); err != nil {
			return &rerrors.WriteError{Path: s.sinkPath, Err: err}
		}
		s.sink = nil
		s.sinkWriter = nil
	}
	if s.file != nil {
		s.file.Close()
		s.file = nil
		s.scanner = nil
	}
	return nil
}
