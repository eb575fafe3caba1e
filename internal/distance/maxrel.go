package distance

import (
	"math"

	"github.com/hep-tools/cresample/internal/event"
	"github.com/hep-tools/cresample/internal/fourvector"
)

// MaxRelWithDeltaR is the alternate, user-extension distance variant.
// Its semantics are definitional only: the core (VP-tree, cell builder,
// resampler driver) never depends on it, and it is not required to
// satisfy the triangle inequality.
type MaxRelWithDeltaR struct {
	PScale   float64
	DeltaR   float64
}

// NewMaxRelWithDeltaR constructs the variant with the given per-particle
// and angular scale factors.
func NewMaxRelWithDeltaR(pScale, deltaRScale float64) MaxRelWithDeltaR {
	return MaxRelWithDeltaR{PScale: pScale, DeltaR: deltaRScale}
}

func deltaR(p, q fourvector.FourVector) float64 {
	pPhi, qPhi := math.Atan2(p.Py, p.Px), math.Atan2(q.Py, q.Px)
	dPhi := pPhi - qPhi
	for dPhi > math.Pi {
		dPhi -= 2 * math.Pi
	}
	for dPhi < -math.Pi {
		dPhi += 2 * math.Pi
	}

	pEta, qEta := pseudorapidity(p), pseudorapidity(q)
	dEta := pEta - qEta
	return math.Hypot(dEta, dPhi)
}

func pseudorapidity(p fourvector.FourVector) float64 {
	norm := p.SpatialNorm()
	if norm == math.Abs(p.Pz) {
		if p.Pz >= 0 {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}
	return 0.5 * math.Log((norm+p.Pz)/(norm-p.Pz))
}

func (d MaxRelWithDeltaR) pairCost(p, q fourvector.FourVector) float64 {
	minNorm := math.Min(p.SpatialNorm(), q.SpatialNorm())
	relMomentum := 0.0
	if minNorm > 0 {
		relMomentum = d.PScale * p.Sub(q).SpatialNorm() / minNorm
	}
	angular := d.DeltaR * deltaR(p, q)
	return math.Max(relMomentum, angular)
}

// Distance computes the maximum, over shared pids, of the per-pair
// maximum of relative-momentum and angular-separation terms. Orphaned
// pids do not contribute (the variant is only defined on shared
// particles); events sharing no pid are at distance 0 by convention.
func (d MaxRelWithDeltaR) Distance(a, b *event.Event) float64 {
	ao, bo := a.Outgoing(), b.Outgoing()
	i, j := 0, 0
	max := 0.0

	for i < len(ao) && j < len(bo) {
		switch {
		case ao[i].PID < bo[j].PID:
			i++
		case bo[j].PID < ao[i].PID:
			j++
		default:
			n := len(ao[i].Momenta)
			if len(bo[j].Momenta) < n {
				n = len(bo[j].Momenta)
			}
			for k := 0; k < n; k++ {
				if c := d.pairCost(ao[i].Momenta[k], bo[j].Momenta[k]); c > max {
					max = c
				}
			}
			i++
			j++
		}
	}
	return max
}
