package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/banshee-data/zensetag/internal/config"
	"github.com/banshee-data/zensetag/internal/history"
	"github.com/banshee-data/zensetag/internal/monitoring"
	"github.com/banshee-data/zensetag/internal/serialmux"
	"github.com/banshee-data/zensetag/internal/tagdata"
)

const (
	modeSerial   = "serial"
	modeDev      = "dev"
	modeDisabled = "disabled"
)

// devPhaseOffset is the phase difference the dev fixture simulates.
const devPhaseOffset = 30

// loadConfig reads path, or the default parameters file when path is empty.
// A missing default file yields an empty configuration.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfig(path)
	}
	cfg, err := config.LoadConfig(config.DefaultConfigPath)
	if errors.Is(err, os.ErrNotExist) {
		monitoring.Logf("%s not found, using built-in defaults", config.DefaultConfigPath)
		return config.EmptyConfig(), nil
	}
	return cfg, err
}

// newReader opens the reader connection for the given mode.
func newReader(mode, portPath string, cfg *config.Config, profiles *config.Profiles) (serialmux.SerialMuxInterface, error) {
	switch mode {
	case modeDisabled:
		return serialmux.NewDisabledSerialMux(), nil
	case modeDev:
		lines, err := devFixture(cfg, profiles)
		if err != nil {
			return nil, err
		}
		interval := time.Second / time.Duration(cfg.GetReadRate())
		return serialmux.NewMockSerialMux(lines, interval), nil
	case modeSerial:
		if portPath == "" {
			return nil, errors.New("serial port is required")
		}
		return serialmux.NewRealSerialMux(portPath, serialmux.OptionsFromSettings(cfg.Serial))
	default:
		return nil, fmt.Errorf("unknown reader mode %q", mode)
	}
}

// devFixture synthesises reads for the initially selected profile, or the
// first profile with two tags.
func devFixture(cfg *config.Config, profiles *config.Profiles) ([][]byte, error) {
	names := append([]string{cfg.GetSensorDef()}, profiles.Names()...)
	for _, name := range names {
		p, ok := profiles.Profile(name)
		if !ok {
			continue
		}
		if a, b, ok := p.Pair(); ok {
			return serialmux.FixtureLines(a, b, devPhaseOffset, 2*p.WindowSize(cfg.GetReadRate())+2), nil
		}
	}
	return nil, errors.New("dev mode needs a sensor profile with two tags")
}

// consume feeds reader lines to the engine until ctx is done.
func consume(ctx context.Context, reader serialmux.SerialMuxInterface, engine serialmux.Ingester) {
	id, c := reader.Subscribe()
	defer reader.Unsubscribe(id)
	for {
		select {
		case payload, ok := <-c:
			if !ok {
				return
			}
			if err := serialmux.HandleEvent(engine, payload); err != nil {
				monitoring.Debugf("error handling event: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// saveHistory writes the run's averages for the current sensor.
func saveHistory(ctx context.Context, saver *history.Saver, engine *tagdata.Engine, started time.Time) error {
	if !saver.Enabled() {
		return nil
	}
	res, err := saver.Save(ctx, history.Run{
		Sensor:    engine.Selection().Profile,
		Values:    engine.History(),
		Warped:    engine.Warped(),
		StartedAt: started,
	})
	if err != nil {
		return err
	}
	monitoring.Logf("phase history saved to %s", res.Path)
	return nil
}
