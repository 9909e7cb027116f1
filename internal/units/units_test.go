package units

import (
	"testing"
)

func TestIsValid(t *testing.T) {
	for _, u := range ValidUnits {
		if !IsValid(u) {
			t.Errorf("IsValid(%q) = false, want true", u)
		}
	}
	if IsValid("mph") {
		t.Error("IsValid(mph) = true, want false")
	}
}

func TestSoilCurve(t *testing.T) {
	tests := []struct {
		deg  float64
		want float64
	}{
		{0, 100},
		{24.9, 100},
		{25, 100},
		{35, 75},
		{45, 50},
		{65, 0},
		{90, 0},
	}
	for _, tt := range tests {
		if got := SoilCurve.Apply(tt.deg); got != tt.want {
			t.Errorf("SoilCurve.Apply(%v) = %v, want %v", tt.deg, got, tt.want)
		}
	}
}

func TestCurveMultipleSegments(t *testing.T) {
	c := Curve{{Degrees: 0, Percent: 0}, {Degrees: 10, Percent: 50}, {Degrees: 20, Percent: 60}}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if got := c.Apply(5); got != 25 {
		t.Errorf("Apply(5) = %v, want 25", got)
	}
	if got := c.Apply(15); got != 55 {
		t.Errorf("Apply(15) = %v, want 55", got)
	}
}

func TestCurveValidate(t *testing.T) {
	tests := []struct {
		name    string
		curve   Curve
		wantErr bool
	}{
		{"empty", nil, false},
		{"single", Curve{{Degrees: 1, Percent: 1}}, true},
		{"unsorted", Curve{{Degrees: 10}, {Degrees: 5}}, true},
		{"duplicate", Curve{{Degrees: 10}, {Degrees: 10}}, true},
		{"soil", SoilCurve, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.curve.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFormatReading(t *testing.T) {
	if got := FormatReading(12.345, nil); got != "12.35°" && got != "12.34°" {
		t.Errorf("FormatReading degrees = %q", got)
	}
	if got := FormatReading(45, SoilCurve); got != "50.00%" {
		t.Errorf("FormatReading soil = %q, want 50.00%%", got)
	}
	if got := Curve(nil).Unit(); got != Degrees {
		t.Errorf("Unit() = %q, want %q", got, Degrees)
	}
}
