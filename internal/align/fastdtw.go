package align

import (
	"math"
	"slices"
)

// Step is one cell of a warp path. I indexes the first sequence, J the second.
type Step struct {
	I, J int
}

// Path is a monotone sequence of steps from (0,0) to (len(a)-1, len(b)-1).
type Path []Step

// Gather projects the path onto two equal-length sequences. Source indices
// repeat wherever the path stalls on one axis.
func (p Path) Gather(a, b []float64) ([]float64, []float64) {
	wa := make([]float64, len(p))
	wb := make([]float64, len(p))
	for k, s := range p {
		wa[k] = a[s.I]
		wb[k] = b[s.J]
	}
	return wa, wb
}

// Cost is the summed absolute difference along the path.
func (p Path) Cost(a, b []float64) float64 {
	var total float64
	for _, s := range p {
		total += math.Abs(a[s.I] - b[s.J])
	}
	return total
}

// WarpPath computes an approximate minimum-cost warp path between a and b
// with FastDTW: both sequences are halved until they fit within radius+2
// samples, solved exactly there, and the coarse path is projected back up one
// level at a time as a search window widened by radius cells.
func WarpPath(a, b []float64, radius int) (Path, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, ErrEmptySequence
	}
	if radius < 0 {
		radius = 0
	}
	return fastDTW(a, b, radius), nil
}

func fastDTW(a, b []float64, radius int) Path {
	minSize := radius + 2
	if len(a) <= minSize || len(b) <= minSize {
		return dtw(a, b, fullWindow(len(a), len(b)))
	}
	coarse := fastDTW(coarsen(a), coarsen(b), radius)
	return dtw(a, b, expandWindow(coarse, len(a), len(b), radius))
}

// coarsen halves a sequence by averaging adjacent pairs. An odd trailing
// sample is carried over unchanged.
func coarsen(x []float64) []float64 {
	out := make([]float64, (len(x)+1)/2)
	for i := range out {
		if 2*i+1 < len(x) {
			out[i] = (x[2*i] + x[2*i+1]) / 2
		} else {
			out[i] = x[2*i]
		}
	}
	return out
}

// window holds, for each row i of the cost matrix, the inclusive column range
// [lo[i], hi[i]] that the search may visit.
type window struct {
	lo, hi []int
}

func fullWindow(n, m int) window {
	w := window{lo: make([]int, n), hi: make([]int, n)}
	for i := range n {
		w.hi[i] = m - 1
	}
	return w
}

// expandWindow projects a coarse path onto an n×m grid. Each coarse cell
// covers a 2×2 block, widened by radius in every direction. The ranges are
// then made monotone and overlapping so (n-1, m-1) stays reachable from
// (0, 0).
func expandWindow(coarse Path, n, m, radius int) window {
	w := window{lo: make([]int, n), hi: make([]int, n)}
	for i := range n {
		w.lo[i] = m
		w.hi[i] = -1
	}

	for _, s := range coarse {
		jlo := max(2*s.J-radius, 0)
		jhi := min(2*s.J+1+radius, m-1)
		for i := max(2*s.I-radius, 0); i <= min(2*s.I+1+radius, n-1); i++ {
			w.lo[i] = min(w.lo[i], jlo)
			w.hi[i] = max(w.hi[i], jhi)
		}
	}

	w.lo[0] = 0
	w.hi[0] = max(w.hi[0], 0)
	w.hi[n-1] = m - 1
	for i := n - 2; i >= 0; i-- {
		w.lo[i] = min(w.lo[i], w.lo[i+1])
	}
	for i := 1; i < n; i++ {
		w.hi[i] = max(w.hi[i], w.hi[i-1])
		w.lo[i] = min(w.lo[i], w.hi[i-1])
	}
	return w
}

func (w window) contains(i, j int) bool {
	return i >= 0 && i < len(w.lo) && j >= w.lo[i] && j <= w.hi[i]
}

// dtw solves DTW exactly inside the window and backtracks the optimal path.
// Ties prefer the diagonal step.
func dtw(a, b []float64, w window) Path {
	n := len(a)
	cost := make([][]float64, n)
	at := func(i, j int) float64 {
		if !w.contains(i, j) {
			return math.Inf(1)
		}
		return cost[i][j-w.lo[i]]
	}

	for i := range n {
		lo, hi := w.lo[i], w.hi[i]
		cost[i] = make([]float64, hi-lo+1)
		for j := lo; j <= hi; j++ {
			best := math.Inf(1)
			if i == 0 && j == 0 {
				best = 0
			}
			if j > lo {
				best = min(best, cost[i][j-1-lo])
			}
			if i > 0 {
				best = min(best, at(i-1, j), at(i-1, j-1))
			}
			cost[i][j-lo] = math.Abs(a[i]-b[j]) + best
		}
	}

	i, j := n-1, len(b)-1
	path := Path{{I: i, J: j}}
	for i > 0 || j > 0 {
		diag, up, left := at(i-1, j-1), at(i-1, j), at(i, j-1)
		switch {
		case diag <= up && diag <= left:
			i, j = i-1, j-1
		case up <= left:
			i--
		default:
			j--
		}
		path = append(path, Step{I: i, J: j})
	}
	slices.Reverse(path)
	return path
}
