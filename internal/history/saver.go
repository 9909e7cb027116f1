// Package history writes a finished run's phase averages to disk and
// optionally records the run as a session.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/zensetag/internal/config"
	"github.com/banshee-data/zensetag/internal/db"
	"github.com/banshee-data/zensetag/internal/fsutil"
	"github.com/banshee-data/zensetag/internal/monitoring"
	"github.com/banshee-data/zensetag/internal/security"
	"github.com/banshee-data/zensetag/internal/timeutil"
)

// FileTimestampLayout is the yyyyMMdd_HHmmss suffix of export file names.
const FileTimestampLayout = "20060102_150405"

// Recorder stores a summarised session. *db.DB satisfies it.
type Recorder interface {
	RecordSession(ctx context.Context, s db.Session, values []float64) (string, error)
}

// Run describes the values to save.
type Run struct {
	Sensor    string
	Values    []float64
	Warped    bool
	StartedAt time.Time
}

// Result reports what Save produced. Both fields are empty when saving is
// disabled.
type Result struct {
	Path      string
	SessionID string
}

// Saver writes phase history exports under <dataDir>/phases.
type Saver struct {
	fs       fsutil.FileSystem
	clock    timeutil.Clock
	recorder Recorder

	enabled bool
	dataDir string
	project string
}

// NewSaver builds a Saver from cfg. recorder may be nil.
func NewSaver(cfg *config.Config, fs fsutil.FileSystem, clock timeutil.Clock, recorder Recorder) *Saver {
	return &Saver{
		fs:       fs,
		clock:    clock,
		recorder: recorder,
		enabled:  cfg.GetStoreData(),
		dataDir:  cfg.GetDataDir(),
		project:  cfg.GetProject(),
	}
}

// Enabled reports whether store_data is set.
func (s *Saver) Enabled() bool { return s.enabled }

// Dir is the directory exports are written to.
func (s *Saver) Dir() string { return filepath.Join(s.dataDir, "phases") }

// FileName returns the export name for sensor at t.
func (s *Saver) FileName(sensor string, t time.Time) string {
	return fmt.Sprintf("%s_%s_%s.json", s.project, sensor, t.Format(FileTimestampLayout))
}

// Save writes run.Values as a JSON array and, when a Recorder is set, records
// a session pointing at the file. A failed session insert is logged and does
// not fail the save.
func (s *Saver) Save(ctx context.Context, run Run) (Result, error) {
	if !s.enabled {
		return Result{}, nil
	}

	now := s.clock.Now()
	dir := s.Dir()
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create %s: %w", dir, err)
	}
	path, err := security.SafeJoin(dir, s.FileName(run.Sensor, now))
	if err != nil {
		return Result{}, err
	}

	values := run.Values
	if values == nil {
		values = []float64{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return Result{}, err
	}
	if err := s.fs.WriteFile(path, data, 0o644); err != nil {
		return Result{}, fmt.Errorf("write %s: %w", path, err)
	}
	monitoring.Logf("saved %d phase values to %s", len(values), path)

	res := Result{Path: path}
	if s.recorder == nil {
		return res, nil
	}

	started := run.StartedAt
	if started.IsZero() {
		started = now
	}
	session := Summarize(values)
	session.Project = s.project
	session.Sensor = run.Sensor
	session.StartedAt = started
	session.EndedAt = now
	session.Warped = run.Warped
	session.ExportPath = path

	id, err := s.recorder.RecordSession(ctx, session, values)
	if err != nil {
		monitoring.Logf("failed to record session: %v", err)
		return res, nil
	}
	res.SessionID = id
	return res, nil
}

// Summarize fills the count and mean/min/max fields of a session from values.
func Summarize(values []float64) db.Session {
	s := db.Session{Count: len(values)}
	if len(values) == 0 {
		return s
	}
	s.Mean = stat.Mean(values, nil)
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	return s
}

// Load reads an export written by Save.
func Load(fs fsutil.FileSystem, path string) ([]float64, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var values []float64
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return values, nil
}
