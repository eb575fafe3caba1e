package distance

import (
	"math"
	"testing"

	"github.com/hep-tools/cresample/internal/event"
	"github.com/hep-tools/cresample/internal/fourvector"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func makeEvent(id int, particles map[int][]fourvector.FourVector) *event.Event {
	e := event.New(id, []float64{1.0})
	for pid, momenta := range particles {
		for _, p := range momenta {
			e.AppendOutgoing(pid, p)
		}
	}
	return e
}

func TestEWSPIdentityIsZero(t *testing.T) {
	e := makeEvent(0, map[int][]fourvector.FourVector{
		11: {fourvector.New(10, 1, 2, 3)},
		22: {fourvector.New(5, 0, 1, 0)},
	})
	d := NewEWSP(0.5)
	if got := d.Distance(e, e); !almostEqual(got, 0) {
		t.Errorf("Distance(e,e) = %v, expected 0", got)
	}
}

func TestEWSPSymmetric(t *testing.T) {
	a := makeEvent(0, map[int][]fourvector.FourVector{
		11: {fourvector.New(10, 1, 2, 3), fourvector.New(4, 1, 0, 0)},
	})
	b := makeEvent(1, map[int][]fourvector.FourVector{
		11: {fourvector.New(8, 0, 2, 1)},
		22: {fourvector.New(3, 0, 0, 1)},
	})
	d := NewEWSP(1.0)
	if got1, got2 := d.Distance(a, b), d.Distance(b, a); !almostEqual(got1, got2) {
		t.Errorf("distance not symmetric: d(a,b)=%v d(b,a)=%v", got1, got2)
	}
}

func TestEWSPOrphanedPIDContributes(t *testing.T) {
	a := makeEvent(0, map[int][]fourvector.FourVector{
		11: {fourvector.New(10, 3, 4, 0)},
	})
	b := makeEvent(1, map[int][]fourvector.FourVector{})
	d := NewEWSP(0)
	// Orphan contribution: sqrt(|p|^2) = spatial norm = 5.
	if got := d.Distance(a, b); !almostEqual(got, 5) {
		t.Errorf("Distance = %v, expected 5", got)
	}
}

func TestEWSPTauZeroIgnoresPtDifference(t *testing.T) {
	// Identical 3-momenta, differing pt is impossible if px,py,pz match,
	// so instead test tau=0 collapses the pt term: p has pt 5 and q has
	// pt 0, and with tau=0 the pair distance is the spatial part alone,
	// |p-q|^2 = 3^2 + 4^2 + 5^2 = 50.
	p := fourvector.New(10, 3, 4, 0)
	q := fourvector.New(10, 0, 0, 5)
	d0 := NewEWSP(0)
	if got := d0.pairDistanceSq(p, q); !almostEqual(got, 50) {
		t.Errorf("pairDistanceSq(p,q) = %v, expected 50", got)
	}
}

func TestEWSPAssignmentMatchesPermutationForSmallN(t *testing.T) {
	// 3 particles each: brute force must equal what a manual minimum
	// over direct pairing would find for the identity pairing here.
	a := []fourvector.FourVector{
		fourvector.New(1, 1, 0, 0),
		fourvector.New(2, 0, 1, 0),
		fourvector.New(3, 0, 0, 1),
	}
	b := []fourvector.FourVector{
		fourvector.New(1, 1, 0, 0),
		fourvector.New(2, 0, 1, 0),
		fourvector.New(3, 0, 0, 1),
	}
	d := NewEWSP(0)
	got := d.sharedContribution(a, b)
	if !almostEqual(got, 0) {
		t.Errorf("identical sets should assign to zero cost, got %v", got)
	}
}

func TestEWSPHungarianMatchesBruteForce(t *testing.T) {
	// 4 particles triggers Hungarian; verify against brute force directly
	// on a cost matrix (testable property 5's VPT/naive analogue, applied
	// to the assignment sub-routine).
	cost := [][]float64{
		{4, 1, 3, 9},
		{2, 0, 5, 6},
		{7, 8, 1, 2},
		{3, 4, 6, 1},
	}
	got := hungarian(cost)
	want := bruteForceAssignment(cost)
	if !almostEqual(got, want) {
		t.Errorf("hungarian() = %v, bruteForceAssignment() = %v", got, want)
	}
}

func TestMinCostAssignmentBoundaryNIsZero(t *testing.T) {
	if got := minCostAssignment(nil); got != 0 {
		t.Errorf("minCostAssignment(nil) = %v, expected 0", got)
	}
}

func TestMinCostAssignmentNIsOne(t *testing.T) {
	cost := [][]float64{{7}}
	if got := minCostAssignment(cost); got != 7 {
		t.Errorf("minCostAssignment(n=1) = %v, expected 7", got)
	}
}
