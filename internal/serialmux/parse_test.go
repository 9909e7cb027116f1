package serialmux

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/banshee-data/zensetag/internal/tagdata"
)

func TestClassifyPayload(t *testing.T) {
	tests := map[string]string{
		`{"epc":"E2","phase":1}`:               EventTypeTagRead,
		`  {"config":{"antenna":1}}`:           EventTypeConfig,
		`{"search_mode":"dual_target"}`:        EventTypeConfig,
		`E2001,2026-01-01,902.75,187.2,-48.5`:  EventTypeTagRead,
		`E2001,902.75,187.2`:                   EventTypeUnknown,
		`READER READY`:                         EventTypeUnknown,
		``:                                     EventTypeUnknown,
	}
	for payload, want := range tests {
		if got := ClassifyPayload(payload); got != want {
			t.Errorf("ClassifyPayload(%q) = %q, want %q", payload, got, want)
		}
	}
}

func TestParseTagReport(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    tagdata.RawTagEvent
		wantErr bool
	}{
		{
			name:    "json degrees",
			payload: `{"epc":"E28011700000020F1A2B0001","timestamp":"2026-10-16T10:00:00Z","channel":902.75,"phase":187.3,"rssi":-48.5}`,
			want:    tagdata.RawTagEvent{EPC: "E28011700000020F1A2B0001", Timestamp: "2026-10-16T10:00:00Z", Channel: 902.75, Phase: 187.3, RSSI: -48.5},
		},
		{
			name:    "json radians",
			payload: `{"epc":"A","timestamp":"t","channel":915.25,"phase_rad":3.141592653589793,"rssi":-50}`,
			want:    tagdata.RawTagEvent{EPC: "A", Timestamp: "t", Channel: 915.25, Phase: 180, RSSI: -50},
		},
		{
			name:    "json degrees win over radians",
			payload: `{"epc":"A","phase":12,"phase_rad":1}`,
			want:    tagdata.RawTagEvent{EPC: "A", Phase: 12},
		},
		{
			name:    "csv",
			payload: " E2001 , 1760608800123 , 927.25 , 44.5 , -52 ",
			want:    tagdata.RawTagEvent{EPC: "E2001", Timestamp: "1760608800123", Channel: 927.25, Phase: 44.5, RSSI: -52},
		},
		{name: "json missing phase", payload: `{"epc":"A","rssi":-40}`, wantErr: true},
		{name: "json missing epc", payload: `{"phase":10}`, wantErr: true},
		{name: "json malformed", payload: `{"epc":`, wantErr: true},
		{name: "csv bad number", payload: "E2,t,902.75,abc,-40", wantErr: true},
		{name: "csv missing epc", payload: ",t,902.75,10,-40", wantErr: true},
		{name: "csv wrong arity", payload: "E2,t,902.75", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTagReport(tt.payload)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTagReport(%q) = %+v, want error", tt.payload, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTagReport(%q) error: %v", tt.payload, err)
			}
			approx := cmpopts.EquateApprox(0, 1e-9)
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseTagReportRadiansRange(t *testing.T) {
	ev, err := ParseTagReport(`{"epc":"A","phase_rad":6.283185307179586}`)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(ev.Phase-360) > 1e-9 {
		t.Errorf("Phase = %v, want 360", ev.Phase)
	}
}
