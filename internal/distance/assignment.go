package distance

import "math"

// minCostAssignment returns the minimum total cost of a perfect matching
// between rows and columns of an n x n cost matrix, choosing the
// algorithm by size per the policy in the distance-function component:
// n=0 -> 0, n=1 -> direct, 2<=n<=3 -> brute-force permutation, n>=4 ->
// Hungarian (Kuhn-Munkres).
//
// No library in the example corpus ships a bipartite minimum-cost
// assignment routine, so this is hand-written directly against the cost
// matrix contract; see DESIGN.md for the survey that led to this choice.
func minCostAssignment(cost [][]float64) float64 {
	n := len(cost)
	switch {
	case n == 0:
		return 0
	case n == 1:
		return cost[0][0]
	case n <= 3:
		return bruteForceAssignment(cost)
	default:
		return hungarian(cost)
	}
}

// bruteForceAssignment enumerates all n! permutations and returns the
// minimum total cost. Used only for n in {2, 3} where n! is trivially
// small.
func bruteForceAssignment(cost [][]float64) float64 {
	n := len(cost)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	best := math.Inf(1)
	permute(perm, 0, func(p []int) {
		total := 0.0
		for i, j := range p {
			total += cost[i][j]
		}
		if total < best {
			best = total
		}
	})
	return best
}

// permute visits every permutation of perm (recursive swap-and-restore
// backtracking) starting at index k, invoking visit on each.
func permute(perm []int, k int, visit func([]int)) {
	if k == len(perm) {
		visit(perm)
		return
	}
	for i := k; i < len(perm); i++ {
		perm[k], perm[i] = perm[i], perm[k]
		permute(perm, k+1, visit)
		perm[k], perm[i] = perm[i], perm[k]
	}
}

// hungarian solves the square assignment problem in O(n^3) via the
// Jonker-Volgenant-free, textbook Kuhn-Munkres dual formulation (successive
// shortest augmenting paths with potentials).
func hungarian(cost [][]float64) float64 {
	n := len(cost)
	const inf = math.MaxFloat64 / 2

	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1) // p[j] = row matched to column j (1-indexed columns)
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, n+1)
		used := make([]bool, n+1)
		for j := range minv {
			minv[j] = inf
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	total := 0.0
	for j := 1; j <= n; j++ {
		total += cost[p[j]-1][j-1]
	}
	return total
}
