package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/zensetag/internal/config"
	"github.com/banshee-data/zensetag/internal/tagdata"
	"github.com/banshee-data/zensetag/internal/timeutil"
	"github.com/banshee-data/zensetag/internal/units"
)

type fakeSource struct {
	mu     sync.Mutex
	values []float64
	sel    tagdata.Selection
}

func (f *fakeSource) ComputeAverage() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.values) == 0 {
		return tagdata.Insufficient
	}
	v := f.values[0]
	f.values = f.values[1:]
	return v
}

func (f *fakeSource) Selection() tagdata.Selection {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sel
}

type recordingSink struct {
	mu     sync.Mutex
	frames []Frame
	err    error
}

func (r *recordingSink) Publish(f Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	return r.err
}

func (r *recordingSink) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Frame(nil), r.frames...)
}

func testProfiles(t *testing.T) *config.Profiles {
	t.Helper()
	p, err := config.NewProfiles([]config.SensorProfile{
		{Name: "soil", EPCs: []string{"A1", "A2"}, Window: 1, DisplayCurve: units.SoilCurve},
		{Name: "sugar", EPCs: []string{"B1", "B2"}, Window: 1},
	})
	require.NoError(t, err)
	return p
}

func TestPublisher_Tick(t *testing.T) {
	src := &fakeSource{values: []float64{tagdata.Insufficient, 65, 0}, sel: tagdata.Selection{Profile: "soil", Auto: true}}
	clock := timeutil.NewMockClock(time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC))
	ok := &recordingSink{}
	failing := &recordingSink{err: errors.New("broker down")}

	p := NewPublisher(src, testProfiles(t), clock, time.Second, failing, ok)

	_, sent := p.Tick()
	assert.False(t, sent, "sentinel is not broadcast")
	assert.Empty(t, ok.Frames())

	f, sent := p.Tick()
	require.True(t, sent)
	assert.Equal(t, 0.0, f.AvgPhaseDiff)
	assert.Equal(t, "0.00%", f.Phase)

	_, sent = p.Tick()
	require.True(t, sent, "zero is a valid reading")

	assert.Len(t, ok.Frames(), 2)
	assert.Len(t, failing.Frames(), 2, "a failing sink does not stop the others")
}

func TestPublisher_UnknownProfileUsesDegrees(t *testing.T) {
	src := &fakeSource{values: []float64{33}, sel: tagdata.Selection{Profile: "salt"}}
	sink := &recordingSink{}
	p := NewPublisher(src, testProfiles(t), timeutil.NewMockClock(time.Unix(0, 0)), time.Second, sink)

	f, sent := p.Tick()
	require.True(t, sent)
	assert.Equal(t, "33.00°", f.Phase)
	assert.Equal(t, "salt", f.Sensor)
}

func TestPublisher_Run(t *testing.T) {
	src := &fakeSource{values: []float64{10, 20, 30}, sel: tagdata.Selection{Profile: "sugar"}}
	clock := timeutil.NewMockClock(time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC))
	sink := &recordingSink{}
	p := NewPublisher(src, testProfiles(t), clock, 500*time.Millisecond, sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return clock.TickerCount() == 1 }, 2*time.Second, time.Millisecond)

	for i := 1; i <= 3; i++ {
		clock.Advance(500 * time.Millisecond)
		want := i
		require.Eventually(t, func() bool { return len(sink.Frames()) == want }, 2*time.Second, time.Millisecond)
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	frames := sink.Frames()
	assert.Equal(t, []float64{10, 20, 30}, []float64{frames[0].Degrees, frames[1].Degrees, frames[2].Degrees})
	assert.Equal(t, "08:00:01 26/10/16", frames[1].Timestamp)
}
