package serialmux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/zensetag/internal/tagdata"
)

type recordingIngester struct {
	events []tagdata.RawTagEvent
	accept bool
}

func (r *recordingIngester) Ingest(ev tagdata.RawTagEvent) bool {
	r.events = append(r.events, ev)
	return r.accept
}

func resetState(t *testing.T) {
	t.Helper()
	stateMu.Lock()
	CurrentState = nil
	stateMu.Unlock()
	t.Cleanup(func() {
		stateMu.Lock()
		CurrentState = nil
		stateMu.Unlock()
	})
}

func TestHandleEvent_TagRead(t *testing.T) {
	ing := &recordingIngester{accept: true}

	require.NoError(t, HandleEvent(ing, "E2001,t1,902.75,10,-40"))
	require.NoError(t, HandleEvent(ing, `{"epc":"E2002","timestamp":"t2","channel":902.75,"phase":15,"rssi":-41}`))

	require.Len(t, ing.events, 2)
	assert.Equal(t, "E2001", ing.events[0].EPC)
	assert.Equal(t, 15.0, ing.events[1].Phase)
}

func TestHandleEvent_RejectedReadIsNotAnError(t *testing.T) {
	ing := &recordingIngester{accept: false}
	assert.NoError(t, HandleEvent(ing, "E2001,t1,902.75,10,-90"))
	assert.Len(t, ing.events, 1)
}

func TestHandleEvent_Config(t *testing.T) {
	resetState(t)
	ing := &recordingIngester{}

	require.NoError(t, HandleEvent(ing, `{"search_mode":"dual_target","session":0}`))
	require.NoError(t, HandleEvent(ing, `{"session":1}`))

	assert.Empty(t, ing.events)
	state := State()
	assert.Equal(t, "dual_target", state["search_mode"])
	assert.Equal(t, float64(1), state["session"])

	state["session"] = "mutated"
	assert.Equal(t, float64(1), State()["session"], "State returns a copy")
}

func TestHandleEvent_Errors(t *testing.T) {
	ing := &recordingIngester{}

	assert.ErrorIs(t, HandleEvent(ing, "READER READY"), ErrUnknownPayload)
	assert.Error(t, HandleEvent(ing, "E2,t,902.75,nan?,-40"))
	assert.Error(t, HandleEvent(ing, `{"config":`))
	assert.Empty(t, ing.events)
}

func TestHandleEvent_FeedsEngine(t *testing.T) {
	profiles := testProfiles(t)
	engine := tagdata.NewEngine(profiles, tagdata.Options{Capacity: 10, ReadRate: 10, RSSIThreshold: -60, Profile: "soil"})

	for _, line := range FixtureLines("A1", "A2", 30, 3) {
		require.NoError(t, HandleEvent(engine, string(line)))
	}
	assert.InDelta(t, 30.0, engine.ComputeAverage(), 1e-9)
}
