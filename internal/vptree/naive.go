package vptree

import "sort"

// Naive is the brute-force reference nearest-neighbour search: compute
// every distance, sort, and filter. It exists purely as a test oracle
// for Tree.RangeSearch and is never on the hot path of the resampler
// driver.
type Naive struct {
	dist DistanceFunc
	n    int
}

// NewNaive wraps dist as a naive search over indices [0, n).
func NewNaive(n int, dist DistanceFunc) *Naive {
	return &Naive{dist: dist, n: n}
}

// RangeSearch has identical observable semantics to Tree.RangeSearch.
func (s *Naive) RangeSearch(query int, maxDist float64, excluded *Exclusion) []IndexDist {
	var results []IndexDist
	for i := 0; i < s.n; i++ {
		if i == query || excluded.Has(i) {
			continue
		}
		d := s.dist(query, i)
		if d <= maxDist {
			results = append(results, IndexDist{i, d})
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Dist < results[j].Dist })
	return results
}
