package stream

import (
	"context"
	"time"

	"github.com/banshee-data/zensetag/internal/monitoring"
	"github.com/banshee-data/zensetag/internal/tagdata"
	"github.com/banshee-data/zensetag/internal/timeutil"
)

// Source is the engine as seen by the publisher.
type Source interface {
	ComputeAverage() float64
	Selection() tagdata.Selection
}

// Publisher polls the engine at a fixed interval and fans readings out to
// its sinks.
type Publisher struct {
	src      Source
	profiles tagdata.ProfileStore
	clock    timeutil.Clock
	interval time.Duration
	sinks    []Sink
}

// NewPublisher creates a publisher. profiles supplies each sensor's display
// curve.
func NewPublisher(src Source, profiles tagdata.ProfileStore, clock timeutil.Clock, interval time.Duration, sinks ...Sink) *Publisher {
	return &Publisher{
		src:      src,
		profiles: profiles,
		clock:    clock,
		interval: interval,
		sinks:    sinks,
	}
}

// Tick computes one reading and publishes it. Sentinel and negative values
// are not published.
func (p *Publisher) Tick() (Frame, bool) {
	sel := p.src.Selection()
	v := p.src.ComputeAverage()
	if v < 0 {
		return Frame{}, false
	}

	profile, _ := p.profiles.Profile(sel.Profile)
	f := NewFrame(v, sel, profile.DisplayCurve, p.clock.Now())
	for _, s := range p.sinks {
		if err := s.Publish(f); err != nil {
			monitoring.Logf("stream: publish failed: %v", err)
		}
	}
	return f, true
}

// Run ticks until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			p.Tick()
		}
	}
}
