package serialmux

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/zensetag/internal/tagdata"
)

const (
	EventTypeTagRead = "tag_read"
	EventTypeConfig  = "config"
	EventTypeUnknown = "unknown"
)

// ErrUnknownPayload is returned for lines that are neither tag reports nor
// configuration echoes.
var ErrUnknownPayload = errors.New("unknown payload")

// ClassifyPayload inspects a line from the bridge and returns its event type.
// JSON tag reports carry an "epc" key; other JSON objects are configuration
// echoes; a comma-separated line with five fields is a CSV tag report.
func ClassifyPayload(payload string) string {
	p := strings.TrimSpace(payload)
	if strings.HasPrefix(p, "{") {
		if strings.Contains(p, `"epc"`) {
			return EventTypeTagRead
		}
		return EventTypeConfig
	}
	if strings.Count(p, ",") == 4 {
		return EventTypeTagRead
	}
	return EventTypeUnknown
}

// tagReportJSON is the bridge's JSON tag report. Phase may be reported in
// degrees or radians.
type tagReportJSON struct {
	EPC       string   `json:"epc"`
	Timestamp string   `json:"timestamp"`
	Channel   float64  `json:"channel"`
	Phase     *float64 `json:"phase"`
	PhaseRad  *float64 `json:"phase_rad"`
	RSSI      float64  `json:"rssi"`
}

// ParseTagReport decodes a JSON or CSV tag report line.
func ParseTagReport(payload string) (tagdata.RawTagEvent, error) {
	p := strings.TrimSpace(payload)
	if strings.HasPrefix(p, "{") {
		return parseTagJSON(p)
	}
	return parseTagCSV(p)
}

func parseTagJSON(p string) (tagdata.RawTagEvent, error) {
	var r tagReportJSON
	if err := json.Unmarshal([]byte(p), &r); err != nil {
		return tagdata.RawTagEvent{}, fmt.Errorf("failed to unmarshal tag report: %w", err)
	}
	if r.EPC == "" {
		return tagdata.RawTagEvent{}, fmt.Errorf("tag report missing epc")
	}

	var phase float64
	switch {
	case r.Phase != nil:
		phase = *r.Phase
	case r.PhaseRad != nil:
		phase = *r.PhaseRad * 180 / math.Pi
	default:
		return tagdata.RawTagEvent{}, fmt.Errorf("tag report for %s missing phase", r.EPC)
	}

	return tagdata.RawTagEvent{
		EPC:       r.EPC,
		Timestamp: r.Timestamp,
		Channel:   r.Channel,
		Phase:     phase,
		RSSI:      r.RSSI,
	}, nil
}

// parseTagCSV decodes "epc,timestamp,channel,phase,rssi".
func parseTagCSV(p string) (tagdata.RawTagEvent, error) {
	fields := strings.Split(p, ",")
	if len(fields) != 5 {
		return tagdata.RawTagEvent{}, fmt.Errorf("%w: expected 5 csv fields, got %d", ErrUnknownPayload, len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if fields[0] == "" {
		return tagdata.RawTagEvent{}, fmt.Errorf("tag report missing epc")
	}

	var nums [3]float64
	for i, name := range []string{"channel", "phase", "rssi"} {
		v, err := strconv.ParseFloat(fields[2+i], 64)
		if err != nil {
			return tagdata.RawTagEvent{}, fmt.Errorf("invalid %s %q: %w", name, fields[2+i], err)
		}
		nums[i] = v
	}

	return tagdata.RawTagEvent{
		EPC:       fields[0],
		Timestamp: fields[1],
		Channel:   nums[0],
		Phase:     nums[1],
		RSSI:      nums[2],
	}, nil
}
