// Package testutil provides shared test helpers and fixtures.
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/zensetag/internal/config"
	"github.com/banshee-data/zensetag/internal/units"
)

// Fixture EPCs used by Profiles.
const (
	SoilA  = "E2000001"
	SoilB  = "E2000002"
	SugarA = "E2000011"
	SugarB = "E2000012"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// LocalHostRequest creates a request that appears to come from loopback, so
// it passes the tsweb debug access check.
func LocalHostRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.RemoteAddr = "127.0.0.1:12345"
	return req
}

// Profiles returns a soil profile with the soil display curve and a plain
// sugar profile, both with one second windows.
func Profiles(t testing.TB) *config.Profiles {
	t.Helper()
	p, err := config.NewProfiles([]config.SensorProfile{
		{Name: "soil", EPCs: []string{SoilA, SoilB}, Window: 1, YRange: 100, DisplayCurve: units.SoilCurve},
		{Name: "sugar", EPCs: []string{SugarA, SugarB}, Window: 1, YRange: 120},
	})
	if err != nil {
		t.Fatalf("failed to build fixture profiles: %v", err)
	}
	return p
}
