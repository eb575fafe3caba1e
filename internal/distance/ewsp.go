// Package distance implements the metric used to compare events: a
// per-pid merge-join that accumulates orphaned-particle norms and, for
// shared pids, a minimum-cost assignment between momentum lists.
package distance

import (
	"math"

	"github.com/hep-tools/cresample/internal/event"
	"github.com/hep-tools/cresample/internal/fourvector"
)

// EWSP is the Euclidean-with-scaled-pt distance function, parameterised
// by tau. It is safe for concurrent use by multiple goroutines (pure
// function of its arguments).
type EWSP struct {
	Tau float64
}

// NewEWSP constructs an EWSP distance with the given scale parameter.
func NewEWSP(tau float64) EWSP {
	return EWSP{Tau: tau}
}

// particleNormSq returns n(p)^2 = |p|^2 + (tau*pt)^2.
func (d EWSP) particleNormSq(p fourvector.FourVector) float64 {
	s := p.SpatialNorm()
	t := d.Tau * p.Pt()
	return s*s + t*t
}

// pairDistanceSq returns d(p,q)^2 = |p-q|^2 + (tau*(pt_p - pt_q))^2.
func (d EWSP) pairDistanceSq(p, q fourvector.FourVector) float64 {
	diff := p.Sub(q)
	s := diff.SpatialNorm()
	t := d.Tau * (p.Pt() - q.Pt())
	return s*s + t*t
}

// Distance computes the EWSP distance between two events. Non-negative,
// finite, d(x,x)=0, symmetric. The triangle inequality is not guaranteed
// for events of differing particle-set cardinality.
func (d EWSP) Distance(a, b *event.Event) float64 {
	ao, bo := a.Outgoing(), b.Outgoing()
	i, j := 0, 0
	total := 0.0

	for i < len(ao) || j < len(bo) {
		switch {
		case j >= len(bo) || (i < len(ao) && ao[i].PID < bo[j].PID):
			total += d.orphanContribution(ao[i].Momenta)
			i++
		case i >= len(ao) || bo[j].PID < ao[i].PID:
			total += d.orphanContribution(bo[j].Momenta)
			j++
		default:
			total += d.sharedContribution(ao[i].Momenta, bo[j].Momenta)
			i++
			j++
		}
	}
	return total
}

// orphanContribution accumulates sqrt(sum n(p_i)^2) for particles present
// in only one event's pid group.
func (d EWSP) orphanContribution(momenta []fourvector.FourVector) float64 {
	sum := 0.0
	for _, p := range momenta {
		sum += d.particleNormSq(p)
	}
	return math.Sqrt(sum)
}

// sharedContribution computes the minimum-cost assignment between two
// momentum lists for a pid both events carry, padding the shorter list
// with zero four-vectors.
func (d EWSP) sharedContribution(a, b []fourvector.FourVector) float64 {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}

	cost := make([][]float64, n)
	for i := range cost {
		cost[i] = make([]float64, n)
		pi := fourvector.Zero
		if i < len(a) {
			pi = a[i]
		}
		for j := 0; j < n; j++ {
			qj := fourvector.Zero
			if j < len(b) {
				qj = b[j]
			}
			cost[i][j] = math.Sqrt(d.pairDistanceSq(pi, qj))
		}
	}
	return minCostAssignment(cost)
}
