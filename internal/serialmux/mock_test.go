package serialmux

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/zensetag/internal/config"
)

func testProfiles(t *testing.T) *config.Profiles {
	t.Helper()
	p, err := config.NewProfiles([]config.SensorProfile{
		{Name: "soil", EPCs: []string{"A1", "A2"}, Window: 1},
	})
	require.NoError(t, err)
	return p
}

func TestFixtureLines(t *testing.T) {
	lines := FixtureLines("A1", "A2", 350, 60)
	require.Len(t, lines, 120)

	for i, line := range lines {
		ev, err := ParseTagReport(string(line))
		require.NoError(t, err, "line %d", i)
		assert.GreaterOrEqual(t, ev.Phase, 0.0)
		assert.Less(t, ev.Phase, 360.0)
		assert.Greater(t, ev.RSSI, -60.0)
	}
	assert.True(t, strings.HasPrefix(string(lines[0]), "A1,"))
	assert.True(t, strings.HasPrefix(string(lines[1]), "A2,"))
}

func TestMockSerialMux(t *testing.T) {
	lines := [][]byte{[]byte("A1,t,902.75,10,-40"), []byte("A2,t,902.75,20,-40")}
	mux := NewMockSerialMux(lines, 5*time.Millisecond)

	_, ch := mux.Subscribe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mux.Monitor(ctx)

	var got []string
	for len(got) < 3 {
		select {
		case line := <-ch:
			got = append(got, line)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, got %v", got)
		}
	}
	assert.Equal(t, []string{"A1,t,902.75,10,-40", "A2,t,902.75,20,-40", "A1,t,902.75,10,-40"}, got)

	require.NoError(t, mux.SendCommand("START"))
	assert.Equal(t, "START\n", mux.port.Written())

	cancel()
	require.NoError(t, mux.Close())
}
