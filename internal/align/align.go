// Package align pairs up samples from two phase sequences so they can be
// compared index by index. Two strategies are provided: plain truncation for
// sequences that are already in lock-step, and FastDTW warping for sequences
// read at slightly different moments.
package align

import (
	"errors"
	"fmt"
)

// ErrEmptySequence is returned when warping is asked to align an empty
// sequence.
var ErrEmptySequence = errors.New("align: empty sequence")

// Strategy selects how two sequences are paired.
type Strategy int

const (
	// Truncated pairs samples by index up to the shorter length.
	Truncated Strategy = iota
	// Warped pairs samples along an approximate DTW path.
	Warped
)

func (s Strategy) String() string {
	switch s {
	case Truncated:
		return "truncated"
	case Warped:
		return "warped"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// StrategyFor maps the is_dtw flag onto a Strategy.
func StrategyFor(warped bool) Strategy {
	if warped {
		return Warped
	}
	return Truncated
}

// Align returns two equal-length sequences whose elements at the same index
// are matched samples. radius bounds the FastDTW refinement neighbourhood and
// is ignored by Truncated.
func Align(a, b []float64, radius int, strategy Strategy) ([]float64, []float64, error) {
	switch strategy {
	case Truncated:
		ta, tb := Truncate(a, b)
		return ta, tb, nil
	case Warped:
		path, err := WarpPath(a, b, radius)
		if err != nil {
			return nil, nil, err
		}
		wa, wb := path.Gather(a, b)
		return wa, wb, nil
	default:
		return nil, nil, fmt.Errorf("align: unknown strategy %v", strategy)
	}
}

// Truncate returns copies of the first min(len(a), len(b)) elements of each
// sequence.
func Truncate(a, b []float64) ([]float64, []float64) {
	n := min(len(a), len(b))
	ta := make([]float64, n)
	tb := make([]float64, n)
	copy(ta, a[:n])
	copy(tb, b[:n])
	return ta, tb
}
