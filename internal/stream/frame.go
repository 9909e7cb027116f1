// Package stream pushes computed phase readings to live subscribers over
// websocket and MQTT, and routes profile selection commands back to the
// engine.
package stream

import (
	"time"

	"github.com/banshee-data/zensetag/internal/tagdata"
	"github.com/banshee-data/zensetag/internal/units"
)

// TimestampLayout is the clock format shown next to each reading.
const TimestampLayout = "15:04:05 06/01/02"

// Frame is one broadcast reading.
type Frame struct {
	AvgPhaseDiff float64 `json:"avgPhaseDiff"` // display value, curve applied
	Degrees      float64 `json:"degrees"`      // raw average phase difference
	Unit         string  `json:"unit"`
	Phase        string  `json:"phase"` // formatted display value
	Timestamp    string  `json:"timestamp"`
	Sensor       string  `json:"sensor"`
	Auto         bool    `json:"auto"`
}

// NewFrame builds the frame for a raw average under the given selection.
func NewFrame(deg float64, sel tagdata.Selection, curve units.Curve, now time.Time) Frame {
	return Frame{
		AvgPhaseDiff: curve.Apply(deg),
		Degrees:      deg,
		Unit:         curve.Unit(),
		Phase:        units.FormatReading(deg, curve),
		Timestamp:    now.Format(TimestampLayout),
		Sensor:       sel.Profile,
		Auto:         sel.Auto,
	}
}

// Sink receives every published frame.
type Sink interface {
	Publish(Frame) error
}
