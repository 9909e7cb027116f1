// Package units converts raw phase differences into the values shown to
// subscribers.
package units

import (
	"fmt"
	"sort"
)

// Unit constants
const (
	Degrees = "deg"
	Percent = "pct"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Degrees, Percent}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// CurvePoint is one knot of a display curve.
type CurvePoint struct {
	Degrees float64 `json:"degrees" yaml:"degrees"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// Curve maps a phase difference in degrees onto a percentage by linear
// interpolation between knots. Inputs below the first knot or above the last
// clamp to that knot's percentage. An empty curve means "show degrees".
type Curve []CurvePoint

// SoilCurve is the moisture mapping used by the soil sensor: 25° reads as
// saturated, 65° as dry.
var SoilCurve = Curve{
	{Degrees: 25, Percent: 100},
	{Degrees: 65, Percent: 0},
}

// Validate checks that the knots are strictly increasing in degrees.
func (c Curve) Validate() error {
	if len(c) == 0 {
		return nil
	}
	if len(c) < 2 {
		return fmt.Errorf("display curve needs at least 2 points, got %d", len(c))
	}
	ok := sort.SliceIsSorted(c, func(i, j int) bool { return c[i].Degrees < c[j].Degrees })
	if !ok {
		return fmt.Errorf("display curve points must be sorted by degrees")
	}
	for i := 1; i < len(c); i++ {
		if c[i].Degrees == c[i-1].Degrees {
			return fmt.Errorf("display curve has duplicate knot at %.2f degrees", c[i].Degrees)
		}
	}
	return nil
}

// Unit reports which unit Apply produces.
func (c Curve) Unit() string {
	if len(c) == 0 {
		return Degrees
	}
	return Percent
}

// Apply maps deg through the curve. With no knots it returns deg unchanged.
func (c Curve) Apply(deg float64) float64 {
	if len(c) == 0 {
		return deg
	}
	if deg <= c[0].Degrees {
		return c[0].Percent
	}
	last := c[len(c)-1]
	if deg >= last.Degrees {
		return last.Percent
	}
	for i := 1; i < len(c); i++ {
		lo, hi := c[i-1], c[i]
		if deg <= hi.Degrees {
			slope := (hi.Percent - lo.Percent) / (hi.Degrees - lo.Degrees)
			return lo.Percent + slope*(deg-lo.Degrees)
		}
	}
	return last.Percent
}

// FormatReading renders a phase difference the way broadcast clients expect
// it: "12.34°" for plain profiles, "56.78%" for profiles with a curve.
func FormatReading(deg float64, c Curve) string {
	if c.Unit() == Percent {
		return fmt.Sprintf("%.2f%%", c.Apply(deg))
	}
	return fmt.Sprintf("%.2f°", deg)
}
