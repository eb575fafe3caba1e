// Package event implements the Event and ParticleSet data model: a
// weighted record of outgoing particles grouped and sorted for use by the
// distance and cell-building machinery.
package event

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hep-tools/cresample/internal/fourvector"
)

// ParticleSet is an ordered list of momenta sharing one particle
// identifier, sorted descending by pt per fourvector.Less.
type ParticleSet struct {
	PID     int
	Momenta []fourvector.FourVector
}

func (p *ParticleSet) insert(v fourvector.FourVector) {
	i := sort.Search(len(p.Momenta), func(i int) bool {
		return fourvector.Less(v, p.Momenta[i]) || v == p.Momenta[i]
	})
	p.Momenta = append(p.Momenta, fourvector.FourVector{})
	copy(p.Momenta[i+1:], p.Momenta[i:])
	p.Momenta[i] = v
}

// Event is a single Monte Carlo event: a stable id, a mutable weight
// vector guarded by a lock, and a pid-sorted outgoing particle list.
//
// Only the weight vector mutates after construction; id and outgoing are
// fixed at creation time.
type Event struct {
	id       int
	outgoing []ParticleSet

	mu      sync.RWMutex
	weights []float64
}

// New constructs an empty event with the given id and central weight
// (plus optional named additional weights).
func New(id int, weights []float64) *Event {
	if len(weights) == 0 {
		panic("event: weights must be non-empty")
	}
	w := make([]float64, len(weights))
	copy(w, weights)
	return &Event{id: id, weights: w}
}

// ID returns the event's stable identifier.
func (e *Event) ID() int { return e.id }

// AppendOutgoing inserts a particle (pid, p) maintaining both the
// ascending-pid grouping and the within-group pt-descending order. It is
// only safe to call before the event is shared across goroutines (during
// ingestion).
func (e *Event) AppendOutgoing(pid int, p fourvector.FourVector) {
	i := sort.Search(len(e.outgoing), func(i int) bool { return e.outgoing[i].PID >= pid })
	if i < len(e.outgoing) && e.outgoing[i].PID == pid {
		e.outgoing[i].insert(p)
		return
	}
	e.outgoing = append(e.outgoing, ParticleSet{})
	copy(e.outgoing[i+1:], e.outgoing[i:])
	e.outgoing[i] = ParticleSet{PID: pid, Momenta: []fourvector.FourVector{p}}
}

// Outgoing returns the pid-sorted outgoing particle list. The returned
// slice must not be mutated by the caller.
func (e *Event) Outgoing() []ParticleSet { return e.outgoing }

// RLock acquires a shared lock over the weight vector, for readers that
// need a consistent snapshot across several field accesses.
func (e *Event) RLock()   { e.mu.RLock() }
func (e *Event) RUnlock() { e.mu.RUnlock() }

// Lock acquires an exclusive lock, required before mutating weights (see
// internal/cell's lock-ordering discipline).
func (e *Event) Lock()   { e.mu.Lock() }
func (e *Event) Unlock() { e.mu.Unlock() }

// CentralWeight returns weights[0] under a shared lock.
func (e *Event) CentralWeight() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.weights[0]
}

// Weights returns a copy of the full weight vector under a shared lock.
func (e *Event) Weights() []float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]float64, len(e.weights))
	copy(out, e.weights)
	return out
}

// SetWeights overwrites the weight vector. Caller must hold the exclusive
// lock (see Lock) and pass a vector of the same length.
func (e *Event) SetWeights(w []float64) error {
	if len(w) != len(e.weights) {
		return fmt.Errorf("event %d: weight count mismatch: have %d, got %d", e.id, len(e.weights), len(w))
	}
	copy(e.weights, w)
	return nil
}

// NumWeights returns len(weights) without locking (fixed at construction).
func (e *Event) NumWeights() int { return len(e.weights) }

// Rescale multiplies every outgoing momentum component by s, used for
// MeV->GeV normalisation at ingest. Not safe for concurrent use with
// readers; call only before the event is published to other goroutines.
func (e *Event) Rescale(s float64) {
	for i := range e.outgoing {
		for j := range e.outgoing[i].Momenta {
			e.outgoing[i].Momenta[j] = e.outgoing[i].Momenta[j].Scale(s)
		}
	}
}
