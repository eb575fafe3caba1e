package obsmetrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordCellIncrementsCounters(t *testing.T) {
	m := New()
	m.RecordCell(1.5, true)
	if got := testutil.ToFloat64(m.CellsBuilt); got != 1 {
		t.Errorf("CellsBuilt = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CellsNonTerminal); got != 0 {
		t.Errorf("CellsNonTerminal = %v, want 0", got)
	}

	m.RecordCell(2.0, false)
	if got := testutil.ToFloat64(m.CellsNonTerminal); got != 1 {
		t.Errorf("CellsNonTerminal = %v, want 1 after a non-terminal cell", got)
	}
}

func TestRecordPassAndDistanceObserve(t *testing.T) {
	m := New()
	m.RecordPass(10 * time.Millisecond)
	m.RecordDistance(time.Microsecond)
	// Histograms expose their sample count via the _count collector;
	// a successful Observe call is enough to establish wiring here.
}
