package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/banshee-data/zensetag/internal/units"
)

// AutoSelect is the selection command that re-enables automatic profile
// switching. It is offered to clients alongside the profile names.
const AutoSelect = "auto"

// SensorProfile describes one measurement: which tags to track, how long a
// window to average over and how to display the result.
type SensorProfile struct {
	Name           string         `json:"name" yaml:"name"`
	EPCs           []string       `json:"epcs" yaml:"epcs"`
	Window         float64        `json:"window" yaml:"window"` // seconds
	YRange         int            `json:"y_range" yaml:"y_range"`
	Classification map[string]int `json:"classification,omitempty" yaml:"classification,omitempty"`
	DisplayCurve   units.Curve    `json:"display_curve,omitempty" yaml:"display_curve,omitempty"`
}

// NormalizeEPC canonicalises an EPC as printed by readers: spaces removed,
// upper-case hex.
func NormalizeEPC(epc string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(epc), " ", ""))
}

// Validate checks a single profile definition.
func (p SensorProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("sensor profile name must not be empty")
	}
	if strings.EqualFold(strings.TrimSpace(p.Name), AutoSelect) {
		return fmt.Errorf("sensor profile name %q is reserved", AutoSelect)
	}
	if p.Window <= 0 {
		return fmt.Errorf("sensor %q: window must be positive, got %f", p.Name, p.Window)
	}
	if p.YRange < 0 {
		return fmt.Errorf("sensor %q: y_range must be non-negative, got %d", p.Name, p.YRange)
	}
	if err := p.DisplayCurve.Validate(); err != nil {
		return fmt.Errorf("sensor %q: %w", p.Name, err)
	}
	return nil
}

// Has reports whether epc belongs to this profile.
func (p SensorProfile) Has(epc string) bool {
	for _, e := range p.EPCs {
		if e == epc {
			return true
		}
	}
	return false
}

// Identities returns the de-duplicated EPC set in lexicographic order.
func (p SensorProfile) Identities() []string {
	seen := make(map[string]struct{}, len(p.EPCs))
	out := make([]string, 0, len(p.EPCs))
	for _, e := range p.EPCs {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// Pair returns the two tags whose phase difference is measured: the first
// two identities in lexicographic order.
func (p SensorProfile) Pair() (a, b string, ok bool) {
	ids := p.Identities()
	if len(ids) < 2 {
		return "", "", false
	}
	return ids[0], ids[1], true
}

// WindowSize converts the window duration into a sample count, truncating
// toward zero.
func (p SensorProfile) WindowSize(readRate int) int {
	return int(p.Window * float64(readRate))
}

// Profiles is a read-only store of sensor profiles keyed by lower-cased name,
// with a reverse index from EPC to profile name used for auto selection.
type Profiles struct {
	byName map[string]SensorProfile
	names  []string
	byEPC  map[string]string
}

// NewProfiles validates and indexes a list of profiles. Names are matched
// case-insensitively and must be unique. When an EPC appears in several
// profiles the last definition wins the auto-selection mapping.
func NewProfiles(list []SensorProfile) (*Profiles, error) {
	p := &Profiles{
		byName: make(map[string]SensorProfile, len(list)),
		byEPC:  make(map[string]string),
	}
	for _, sp := range list {
		if err := sp.Validate(); err != nil {
			return nil, err
		}
		name := strings.ToLower(strings.TrimSpace(sp.Name))
		if _, dup := p.byName[name]; dup {
			return nil, fmt.Errorf("duplicate sensor profile %q", name)
		}

		norm := sp
		norm.Name = name
		norm.EPCs = make([]string, 0, len(sp.EPCs))
		for _, e := range sp.EPCs {
			epc := NormalizeEPC(e)
			if epc == "" {
				continue
			}
			norm.EPCs = append(norm.EPCs, epc)
			p.byEPC[epc] = name
		}

		p.byName[name] = norm
		p.names = append(p.names, name)
	}
	return p, nil
}

// Profile resolves a profile by name.
func (p *Profiles) Profile(name string) (SensorProfile, bool) {
	sp, ok := p.byName[strings.ToLower(strings.TrimSpace(name))]
	return sp, ok
}

// ProfileForIdentity returns the profile an EPC is registered under.
func (p *Profiles) ProfileForIdentity(epc string) (string, bool) {
	name, ok := p.byEPC[epc]
	return name, ok
}

// Names returns the profile names in definition order.
func (p *Profiles) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// SelectableNames returns the profile names followed by AutoSelect, the list
// offered to clients for switching.
func (p *Profiles) SelectableNames() []string {
	return append(p.Names(), AutoSelect)
}
