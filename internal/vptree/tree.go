// Package vptree implements the vantage-point tree used to accelerate
// exclusion-aware nearest-neighbour queries over event indices, plus a
// naive reference search with identical observable semantics (see
// naive.go). The tree itself never touches Event values; it is built
// over a caller-supplied DistanceFunc and serves the cell builder's EWSP
// searches. The space partitioner (internal/partition) has its own
// depth-capped copy of the corner-vantage construction.
package vptree

import (
	"math"
	"sort"

	"github.com/hep-tools/cresample/internal/workerpool"
)

// DistanceFunc computes the distance between the points at indices i and
// j of the set the tree was built over.
type DistanceFunc func(i, j int) float64

// IndexDist pairs a point index with its distance to the query.
type IndexDist struct {
	Index int
	Dist  float64
}

// Exclusion is a dense, explicit exclusion set keyed by point index,
// rather than a per-node cache of "used" flags: the explicit form
// composes more simply with concurrent per-query goroutine use over one
// shared tree.
type Exclusion struct {
	marked []bool
}

// NewExclusion returns an exclusion set sized for n points, initially
// empty.
func NewExclusion(n int) *Exclusion {
	return &Exclusion{marked: make([]bool, n)}
}

// Mark excludes index i from future range searches against this set.
func (e *Exclusion) Mark(i int) { e.marked[i] = true }

// Has reports whether index i is currently excluded.
func (e *Exclusion) Has(i int) bool { return i < len(e.marked) && e.marked[i] }

type node struct {
	vantage int
	radius  float64
	inside  *node
	outside *node
	leaf    int
	isLeaf  bool
}

// Tree is a balanced vantage-point tree over a fixed set of point
// indices [0, n).
type Tree struct {
	root *node
	dist DistanceFunc
	n    int
}

// parallelThreshold is the subtree-size cutoff above which construction
// of the inside/outside children proceeds on separate goroutines,
// matching the ~1000-point threshold named in the component design.
const parallelThreshold = 1000

// Build constructs a VP-tree over indices [0, n) using dist as the
// metric. Construction parallelises across independent subtrees once a
// subtree's point count exceeds parallelThreshold.
func Build(n int, dist DistanceFunc) *Tree {
	if n == 0 {
		return &Tree{dist: dist, n: 0}
	}
	points := make([]int, n)
	for i := range points {
		points[i] = i
	}
	// First call's reference is the last element, per the corner-vantage
	// heuristic in the component design.
	reference := points[len(points)-1]
	root := build(points, reference, dist)
	return &Tree{root: root, dist: dist, n: n}
}

func build(points []int, reference int, dist DistanceFunc) *node {
	if len(points) == 0 {
		return nil
	}
	if len(points) == 1 {
		return &node{leaf: points[0], isLeaf: true}
	}

	vantage := corner(points, reference, dist)
	rest := make([]int, 0, len(points)-1)
	for _, p := range points {
		if p != vantage {
			rest = append(rest, p)
		}
	}

	type distEntry struct {
		idx  int
		dist float64
	}
	entries := make([]distEntry, len(rest))
	for i, p := range rest {
		entries[i] = distEntry{p, dist(vantage, p)}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].dist < entries[j].dist })

	mid := len(entries) / 2
	radius := entries[mid].dist

	insidePts := make([]int, 0, mid+1)
	outsidePts := make([]int, 0, len(entries)-mid-1)
	for i, e := range entries {
		if i <= mid {
			insidePts = append(insidePts, e.idx)
		} else {
			outsidePts = append(outsidePts, e.idx)
		}
	}

	n := &node{vantage: vantage, radius: radius}

	// The vantage point just chosen is itself an extreme corner of this
	// subtree; it is reused as the reference for both children so each
	// recursion again biases its own vantage toward a far corner.
	if len(insidePts)+len(outsidePts) > parallelThreshold {
		join := workerpool.Go(func() {
			n.inside = build(insidePts, vantage, dist)
		})
		n.outside = build(outsidePts, vantage, dist)
		join()
	} else {
		n.inside = build(insidePts, vantage, dist)
		n.outside = build(outsidePts, vantage, dist)
	}

	return n
}

// corner picks the point in points furthest from reference. If
// reference itself is the sole element of points it is returned (the
// len(points)==1 case is handled by the caller before this is reached in
// practice, but the loop is safe regardless).
func corner(points []int, reference int, dist DistanceFunc) int {
	best := points[0]
	bestDist := -1.0
	for _, p := range points {
		d := dist(reference, p)
		if d > bestDist {
			bestDist = d
			best = p
		}
	}
	return best
}

// RangeSearch returns every point within maxDist of query, excluding
// query itself and any index marked in excluded, sorted ascending by
// distance. The cell builder only ever needs points within a bounded
// radius consumed in order, stopping once no candidate remains within
// range, so an eagerly computed, pre-sorted result set serves that
// caller the same way a lazy iterator would.
func (t *Tree) RangeSearch(query int, maxDist float64, excluded *Exclusion) []IndexDist {
	if t.root == nil {
		return nil
	}
	var results []IndexDist
	var recurse func(n *node)
	recurse = func(n *node) {
		if n == nil {
			return
		}
		if n.isLeaf {
			if n.leaf == query || excluded.Has(n.leaf) {
				return
			}
			d := t.dist(query, n.leaf)
			if d <= maxDist {
				results = append(results, IndexDist{n.leaf, d})
			}
			return
		}

		d := t.dist(query, n.vantage)
		if n.vantage != query && !excluded.Has(n.vantage) && d <= maxDist {
			results = append(results, IndexDist{n.vantage, d})
		}

		if d <= n.radius {
			recurse(n.inside)
			if math.Abs(d-n.radius) <= maxDist {
				recurse(n.outside)
			}
		} else {
			recurse(n.outside)
			if math.Abs(d-n.radius) <= maxDist {
				recurse(n.inside)
			}
		}
	}
	recurse(t.root)

	sort.Slice(results, func(i, j int) bool { return results[i].Dist < results[j].Dist })
	return results
}

// Len returns the number of points the tree was built over.
func (t *Tree) Len() int { return t.n }
