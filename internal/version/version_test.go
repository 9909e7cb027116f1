package version

import "testing"

func TestCurrent(t *testing.T) {
	oldV, oldSHA, oldBuilt := Version, GitSHA, BuildTime
	defer func() { Version, GitSHA, BuildTime = oldV, oldSHA, oldBuilt }()

	Version, GitSHA, BuildTime = "1.2.0", "abc123", "2026-10-01T00:00:00Z"
	info := Current()
	if info.Version != "1.2.0" || info.GitSHA != "abc123" {
		t.Errorf("Current() = %+v", info)
	}
	want := "zensetag 1.2.0 (git abc123, built 2026-10-01T00:00:00Z)"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
