package tagdata

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFold(t *testing.T) {
	tests := []struct {
		diff, want float64
	}{
		{0, 0},
		{134, 134},
		{135, 135},
		{136, 44},
		{180, 0},
		{225, 45},
		{270, 90},
		{271, 89},
		{359, 1},
		{360, 0},
	}
	for _, tt := range tests {
		if got := Fold(tt.diff); got != tt.want {
			t.Errorf("Fold(%v) = %v, want %v", tt.diff, got, tt.want)
		}
	}
}

func TestGroupByChannel(t *testing.T) {
	records := []TagRecord{
		{EPC: "A", Channel: 902.75, Phase: 1},
		{EPC: "B", Channel: 902.75, Phase: 2},
		{EPC: "C", Channel: 902.75, Phase: 99},
		{EPC: "A", Channel: 903.25, Phase: 3},
		{EPC: "A", Channel: 902.75, Phase: 4},
		{EPC: "B", Channel: 915.25, Phase: 5},
	}

	ga, gb := GroupByChannel(records, "A", "B")

	wantA := ChannelPhases{902.75: {1, 4}, 903.25: {3}}
	wantB := ChannelPhases{902.75: {2}, 915.25: {5}}
	if diff := cmp.Diff(wantA, ga); diff != "" {
		t.Errorf("group A mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantB, gb); diff != "" {
		t.Errorf("group B mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{902.75}, SharedChannels(ga, gb)); diff != "" {
		t.Errorf("shared channels mismatch (-want +got):\n%s", diff)
	}
}

func TestSharedChannelsSorted(t *testing.T) {
	ga := ChannelPhases{926: nil, 902: nil, 915: nil}
	gb := ChannelPhases{915: nil, 926: nil, 902: nil, 910: nil}
	if diff := cmp.Diff([]float64{902, 915, 926}, SharedChannels(ga, gb)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestIsInsufficient(t *testing.T) {
	if !IsInsufficient(Insufficient) {
		t.Error("IsInsufficient(Insufficient) = false")
	}
	if IsInsufficient(0) {
		t.Error("IsInsufficient(0) = true")
	}
}
