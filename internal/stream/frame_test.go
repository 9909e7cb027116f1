package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/zensetag/internal/tagdata"
	"github.com/banshee-data/zensetag/internal/units"
)

func TestNewFrame(t *testing.T) {
	now := time.Date(2026, 10, 16, 14, 5, 9, 0, time.UTC)

	t.Run("with curve", func(t *testing.T) {
		f := NewFrame(45, tagdata.Selection{Profile: "soil", Auto: true}, units.SoilCurve, now)
		assert.Equal(t, Frame{
			AvgPhaseDiff: 50,
			Degrees:      45,
			Unit:         units.Percent,
			Phase:        "50.00%",
			Timestamp:    "14:05:09 26/10/16",
			Sensor:       "soil",
			Auto:         true,
		}, f)
	})

	t.Run("plain degrees", func(t *testing.T) {
		f := NewFrame(12.345, tagdata.Selection{Profile: "sugar"}, nil, now)
		assert.Equal(t, 12.345, f.AvgPhaseDiff)
		assert.Equal(t, units.Degrees, f.Unit)
		assert.Equal(t, "12.35°", f.Phase)
		assert.False(t, f.Auto)
	})
}
