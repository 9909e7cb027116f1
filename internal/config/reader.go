package config

import (
	"fmt"
	"strings"
)

// Search modes understood by the reader bridge.
const (
	SearchModeDualTarget   = "dual_target"
	SearchModeSingleTarget = "single_target"
)

// ReaderSettings holds the RF session parameters applied to the reader when
// the bridge is initialised. Zero values fall back to defaults.
type ReaderSettings struct {
	Antenna       int    `json:"antenna,omitempty" yaml:"antenna,omitempty"`
	RFMode        *int   `json:"rf_mode,omitempty" yaml:"rf_mode,omitempty"`
	Session       *int   `json:"session,omitempty" yaml:"session,omitempty"`
	TagPopulation int    `json:"tag_population,omitempty" yaml:"tag_population,omitempty"`
	SearchMode    string `json:"search_mode,omitempty" yaml:"search_mode,omitempty"`
}

// ReportSettings selects which fields the reader includes in each tag
// report. Unset fields default to enabled.
type ReportSettings struct {
	Channel   *bool `json:"channel,omitempty" yaml:"channel,omitempty"`
	RSSI      *bool `json:"rssi,omitempty" yaml:"rssi,omitempty"`
	Phase     *bool `json:"phase,omitempty" yaml:"phase,omitempty"`
	Timestamp *bool `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Count     *bool `json:"count,omitempty" yaml:"count,omitempty"`
}

// Validate checks reader settings ranges.
func (r ReaderSettings) Validate() error {
	if r.Antenna < 0 || r.Antenna > 4 {
		return fmt.Errorf("reader antenna must be between 1 and 4 (0 for all), got %d", r.Antenna)
	}
	if r.Session != nil && (*r.Session < 0 || *r.Session > 3) {
		return fmt.Errorf("reader session must be between 0 and 3, got %d", *r.Session)
	}
	if r.TagPopulation < 0 {
		return fmt.Errorf("reader tag_population must be non-negative, got %d", r.TagPopulation)
	}
	switch r.SearchMode {
	case "", SearchModeDualTarget, SearchModeSingleTarget:
	default:
		return fmt.Errorf("unsupported reader search_mode %q", r.SearchMode)
	}
	return nil
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// Fields returns the enabled report field names in a fixed order.
func (r ReportSettings) Fields() []string {
	var fields []string
	for _, f := range []struct {
		name string
		on   *bool
	}{
		{"channel", r.Channel},
		{"rssi", r.RSSI},
		{"phase", r.Phase},
		{"timestamp", r.Timestamp},
		{"count", r.Count},
	} {
		if boolOr(f.on, true) {
			fields = append(fields, f.name)
		}
	}
	return fields
}

// ReaderCommands builds the bridge set-up command sequence. Deployments of
// the project itself use the tuned RF settings on a single antenna; anything
// else gets single-target defaults with every antenna enabled.
func (c *Config) ReaderCommands() []string {
	var cmds []string
	if c.DualTarget() {
		mode := c.Reader.SearchMode
		if mode == "" {
			mode = SearchModeDualTarget
		}
		antenna := "all"
		if c.Reader.Antenna > 0 {
			antenna = fmt.Sprintf("%d", c.Reader.Antenna)
		}
		pop := c.Reader.TagPopulation
		if pop == 0 {
			pop = 4
		}
		cmds = append(cmds,
			"SET search_mode="+mode,
			fmt.Sprintf("SET rf_mode=%d", intOr(c.Reader.RFMode, 4)),
			fmt.Sprintf("SET session=%d", intOr(c.Reader.Session, 0)),
			fmt.Sprintf("SET tag_population=%d", pop),
			"SET antenna="+antenna,
		)
	} else {
		cmds = append(cmds,
			"SET search_mode="+SearchModeSingleTarget,
			"SET rf_mode=4",
			"SET session=0",
			"SET tag_population=4",
			"SET antenna=all",
		)
	}
	cmds = append(cmds, "SET report="+strings.Join(c.Report.Fields(), ","), "START")
	return cmds
}
