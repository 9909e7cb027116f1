package tagdata

import (
	"strings"
	"sync/atomic"

	"github.com/banshee-data/zensetag/internal/config"
)

// Selection is the active profile and whether reads may switch it.
type Selection struct {
	Profile string `json:"profile"`
	Auto    bool   `json:"auto"`
}

// selector holds the Selection behind an atomic pointer so readers always
// see a matching profile and mode.
type selector struct {
	p atomic.Pointer[Selection]
}

func newSelector(initial Selection) *selector {
	s := &selector{}
	initial.Profile = strings.ToLower(strings.TrimSpace(initial.Profile))
	s.p.Store(&initial)
	return s
}

func (s *selector) current() Selection {
	return *s.p.Load()
}

// apply handles a selection command. "auto" keeps the current profile and
// turns on auto mode; anything else is taken as a manual profile name.
func (s *selector) apply(command string) Selection {
	cmd := strings.ToLower(strings.TrimSpace(command))
	for {
		old := s.p.Load()
		next := &Selection{Profile: cmd}
		if cmd == config.AutoSelect {
			next = &Selection{Profile: old.Profile, Auto: true}
		}
		if s.p.CompareAndSwap(old, next) {
			return *next
		}
	}
}

// promote switches the profile while in auto mode. A manual selection made
// concurrently is never overwritten.
func (s *selector) promote(profile string) Selection {
	for {
		old := s.p.Load()
		if !old.Auto || old.Profile == profile {
			return *old
		}
		if s.p.CompareAndSwap(old, &Selection{Profile: profile, Auto: true}) {
			return Selection{Profile: profile, Auto: true}
		}
	}
}
