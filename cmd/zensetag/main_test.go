package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/zensetag/internal/config"
	"github.com/banshee-data/zensetag/internal/fsutil"
	"github.com/banshee-data/zensetag/internal/history"
	"github.com/banshee-data/zensetag/internal/monitoring"
	"github.com/banshee-data/zensetag/internal/serialmux"
	"github.com/banshee-data/zensetag/internal/tagdata"
	"github.com/banshee-data/zensetag/internal/timeutil"
)

func init() {
	monitoring.SetLogger(nil)
}

func TestFlagDefaults(t *testing.T) {
	assert.Equal(t, ":8080", *listen)
	assert.Equal(t, "zensetag.db", *dbFile)
	assert.Empty(t, *configPath)
	assert.False(t, *devMode)
	assert.False(t, *disableReader)
	assert.Equal(t, modeSerial, readerMode())
}

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.GetReadRate())

	_, err = loadConfig("missing.json")
	assert.Error(t, err, "an explicit path must exist")
}

func TestNewReaderModes(t *testing.T) {
	cfg := config.MustLoadDefaultConfig()
	profiles, err := cfg.Profiles()
	require.NoError(t, err)

	r, err := newReader(modeDisabled, "", cfg, profiles)
	require.NoError(t, err)
	assert.IsType(t, &serialmux.DisabledSerialMux{}, r)
	require.NoError(t, r.Close())

	r, err = newReader(modeDev, "", cfg, profiles)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	_, err = newReader(modeSerial, "", cfg, profiles)
	assert.Error(t, err)

	_, err = newReader("carrier-pigeon", "", cfg, profiles)
	assert.Error(t, err)
}

func TestDevFixtureNeedsPair(t *testing.T) {
	cfg := config.EmptyConfig()
	profiles, err := config.NewProfiles([]config.SensorProfile{
		{Name: "solo", EPCs: []string{"A1"}, Window: 1},
	})
	require.NoError(t, err)

	_, err = devFixture(cfg, profiles)
	assert.Error(t, err)
}

// TestDevFixtureEndToEnd pushes the synthetic reads through the line parser
// into a fresh engine and expects the simulated offset back.
func TestDevFixtureEndToEnd(t *testing.T) {
	cfg := config.MustLoadDefaultConfig()
	profiles, err := cfg.Profiles()
	require.NoError(t, err)

	lines, err := devFixture(cfg, profiles)
	require.NoError(t, err)

	engine := tagdata.NewEngine(profiles, tagdata.OptionsFromConfig(cfg))
	for _, line := range lines {
		require.NoError(t, serialmux.HandleEvent(engine, string(line)))
	}
	assert.InDelta(t, devPhaseOffset, engine.ComputeAverage(), 1e-9)
	assert.Equal(t, cfg.GetSensorDef(), engine.Selection().Profile)
}

func TestConsumeFeedsEngine(t *testing.T) {
	cfg := config.MustLoadDefaultConfig()
	profiles, err := cfg.Profiles()
	require.NoError(t, err)

	lines, err := devFixture(cfg, profiles)
	require.NoError(t, err)
	reader := serialmux.NewMockSerialMux(lines, time.Millisecond)
	engine := tagdata.NewEngine(profiles, tagdata.OptionsFromConfig(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		reader.Monitor(ctx)
	}()
	go func() {
		defer wg.Done()
		consume(ctx, reader, engine)
	}()

	assert.Eventually(t, func() bool {
		return engine.Stats().Accepted >= 4
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	reader.Close()
	wg.Wait()
}

func TestSaveHistory(t *testing.T) {
	cfg, err := config.ParseConfig([]byte(`{
  "store_data": true,
  "project": "trial",
  "sensors": [{"name": "soil", "epcs": ["A1", "A2"], "window": 1}]
}`), ".json")
	require.NoError(t, err)
	profiles, err := cfg.Profiles()
	require.NoError(t, err)

	engine := tagdata.NewEngine(profiles, tagdata.Options{Capacity: 10, ReadRate: 10, RSSIThreshold: -60, Profile: "soil"})
	engine.Ingest(tagdata.RawTagEvent{EPC: "A1", Channel: 915.25, Phase: 100, RSSI: -40})
	engine.Ingest(tagdata.RawTagEvent{EPC: "A2", Channel: 915.25, Phase: 120, RSSI: -40})
	require.Equal(t, 20.0, engine.ComputeAverage())

	fs := fsutil.NewMemoryFileSystem()
	now := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	saver := history.NewSaver(cfg, fs, timeutil.NewMockClock(now), nil)
	require.NoError(t, saveHistory(context.Background(), saver, engine, now.Add(-time.Minute)))

	values, err := history.Load(fs, "data/phases/trial_soil_20240501_093000.json")
	require.NoError(t, err)
	assert.Equal(t, []float64{20}, values)
}

func TestSaveHistoryDisabled(t *testing.T) {
	cfg := config.EmptyConfig()
	fs := fsutil.NewMemoryFileSystem()
	saver := history.NewSaver(cfg, fs, timeutil.NewMockClock(time.Now()), nil)
	profiles, err := cfg.Profiles()
	require.NoError(t, err)
	engine := tagdata.NewEngine(profiles, tagdata.OptionsFromConfig(cfg))

	require.NoError(t, saveHistory(context.Background(), saver, engine, time.Now()))
	assert.False(t, fs.Exists("data/phases"))
}
