package tagdata

import (
	"math"
	"slices"
)

// Insufficient is returned by ComputeAverage when no value can be derived
// this cycle. Valid averages are never negative.
const Insufficient = -1000.0

// IsInsufficient reports whether v is the no-data sentinel.
func IsInsufficient(v float64) bool {
	return v == Insufficient
}

// Fold maps an absolute phase difference onto its minimal circular distance,
// correcting for wrap at 360° and the 180° ambiguity of the IQ demodulator.
func Fold(diff float64) float64 {
	switch {
	case diff > 270:
		return math.Abs(diff - 360)
	case diff > 135:
		return math.Abs(diff - 180)
	default:
		return diff
	}
}

// ChannelPhases maps a channel frequency to its phase samples in arrival
// order.
type ChannelPhases map[float64][]float64

// GroupByChannel splits records belonging to identities a and b into per
// channel phase sequences. Records for any other identity are ignored.
func GroupByChannel(records []TagRecord, a, b string) (ChannelPhases, ChannelPhases) {
	ga := make(ChannelPhases)
	gb := make(ChannelPhases)
	for _, r := range records {
		switch r.EPC {
		case a:
			ga[r.Channel] = append(ga[r.Channel], r.Phase)
		case b:
			gb[r.Channel] = append(gb[r.Channel], r.Phase)
		}
	}
	return ga, gb
}

// SharedChannels returns the channels present in both groupings, ascending.
func SharedChannels(ga, gb ChannelPhases) []float64 {
	out := make([]float64, 0, len(ga))
	for ch := range ga {
		if _, ok := gb[ch]; ok {
			out = append(out, ch)
		}
	}
	slices.Sort(out)
	return out
}
