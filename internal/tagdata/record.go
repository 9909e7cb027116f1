// Package tagdata turns a stream of RFID tag reads into a windowed average
// phase difference between the two tags of the active sensor profile.
package tagdata

import "math"

// RawTagEvent is a tag read as reported by the reader, before filtering.
type RawTagEvent struct {
	EPC       string  `json:"epc"`
	Timestamp string  `json:"timestamp"`
	Channel   float64 `json:"channel"` // MHz
	Phase     float64 `json:"phase"`   // degrees
	RSSI      float64 `json:"rssi"`    // dBm
}

// TagRecord is an accepted observation held in the Buffer.
type TagRecord struct {
	EPC       string  `json:"epc"`
	Timestamp string  `json:"timestamp"`
	Channel   float64 `json:"channel"`
	Phase     float64 `json:"phase"`
	RSSI      float64 `json:"rssi"`
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
