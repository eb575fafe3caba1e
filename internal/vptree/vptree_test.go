package vptree

import (
	"math"
	"math/rand"
	"testing"
)

// gridPoints builds a deterministic point cloud in R^2 (no randomness
// needed for distance computation, only for reproducible layout) and
// returns a DistanceFunc over it.
func gridPoints(n int) (DistanceFunc, [][2]float64) {
	r := rand.New(rand.NewSource(42))
	pts := make([][2]float64, n)
	for i := range pts {
		pts[i] = [2]float64{r.Float64() * 100, r.Float64() * 100}
	}
	dist := func(i, j int) float64 {
		dx := pts[i][0] - pts[j][0]
		dy := pts[i][1] - pts[j][1]
		return math.Sqrt(dx*dx + dy*dy)
	}
	return dist, pts
}

func TestVPTreeMatchesNaive(t *testing.T) {
	const n = 200
	dist, _ := gridPoints(n)

	tree := Build(n, dist)
	naive := NewNaive(n, dist)

	for q := 0; q < n; q += 7 {
		excl := NewExclusion(n)
		got := tree.RangeSearch(q, 40, excl)
		want := naive.RangeSearch(q, 40, excl)

		if len(got) != len(want) {
			t.Fatalf("query %d: got %d results, want %d", q, len(got), len(want))
		}
		for i := range got {
			if got[i].Index != want[i].Index || math.Abs(got[i].Dist-want[i].Dist) > 1e-9 {
				t.Errorf("query %d, position %d: got %+v, want %+v", q, i, got[i], want[i])
			}
		}
	}
}

func TestVPTreeRespectsExclusion(t *testing.T) {
	const n = 50
	dist, _ := gridPoints(n)
	tree := Build(n, dist)

	excl := NewExclusion(n)
	first := tree.RangeSearch(0, math.Inf(1), excl)
	if len(first) == 0 {
		t.Fatal("expected at least one neighbour")
	}
	excl.Mark(first[0].Index)

	second := tree.RangeSearch(0, math.Inf(1), excl)
	for _, r := range second {
		if r.Index == first[0].Index {
			t.Errorf("excluded index %d reappeared in later search", first[0].Index)
		}
	}
	if len(second) != len(first)-1 {
		t.Errorf("expected exclusion to shrink result count by exactly 1, got %d -> %d", len(first), len(second))
	}
}

func TestVPTreeMaxDistBound(t *testing.T) {
	const n = 100
	dist, _ := gridPoints(n)
	tree := Build(n, dist)
	excl := NewExclusion(n)

	results := tree.RangeSearch(0, 10, excl)
	for _, r := range results {
		if r.Dist > 10 {
			t.Errorf("result %+v exceeds maxDist 10", r)
		}
	}
}

func TestVPTreeSingleton(t *testing.T) {
	dist := func(i, j int) float64 { return 0 }
	tree := Build(1, dist)
	excl := NewExclusion(1)
	if got := tree.RangeSearch(0, math.Inf(1), excl); len(got) != 0 {
		t.Errorf("singleton tree should have no neighbours, got %v", got)
	}
}

func TestVPTreeEmpty(t *testing.T) {
	dist := func(i, j int) float64 { return 0 }
	tree := Build(0, dist)
	if tree.Len() != 0 {
		t.Errorf("Len() = %d, expected 0", tree.Len())
	}
}

func TestVPTreeResultsNonDecreasing(t *testing.T) {
	const n = 150
	dist, _ := gridPoints(n)
	tree := Build(n, dist)
	excl := NewExclusion(n)

	results := tree.RangeSearch(3, math.Inf(1), excl)
	for i := 1; i < len(results); i++ {
		if results[i].Dist < results[i-1].Dist {
			t.Errorf("results not non-decreasing at index %d: %v then %v", i, results[i-1], results[i])
		}
	}
}
