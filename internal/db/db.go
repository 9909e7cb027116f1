// Package db persists completed phase sessions in SQLite.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrSessionNotFound is returned when a session id has no row.
var ErrSessionNotFound = errors.New("db: session not found")

type DB struct {
	*sql.DB
}

// NewDB opens the database at path and brings its schema up to date.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(migrationsFS); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenDB opens the database and applies connection pragmas without running
// migrations.
func OpenDB(path string) (*DB, error) {
	raw, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := applyPragmas(raw); err != nil {
		raw.Close()
		return nil, err
	}
	return &DB{raw}, nil
}

func applyPragmas(db *sql.DB) error {
	for _, p := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return nil
}

// Session summarises one run of the engine: the averages it produced and
// where the JSON export was written.
type Session struct {
	ID         string    `json:"session_id"`
	Project    string    `json:"project"`
	Sensor     string    `json:"sensor"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
	Count      int       `json:"count"`
	Mean       float64   `json:"mean"`
	Min        float64   `json:"min"`
	Max        float64   `json:"max"`
	Warped     bool      `json:"warped"`
	ExportPath string    `json:"export_path,omitempty"`
}

// RecordSession stores s together with its ordered values. A fresh id is
// assigned when s.ID is empty; the stored id is returned.
func (db *DB) RecordSession(ctx context.Context, s Session, values []float64) (string, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO phase_sessions (
			session_id, project, sensor, started_at, ended_at,
			sample_count, mean_phase, min_phase, max_phase, warped, export_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Project, s.Sensor, s.StartedAt.UnixMilli(), s.EndedAt.UnixMilli(),
		s.Count, s.Mean, s.Min, s.Max, s.Warped, s.ExportPath,
	)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO phase_values (session_id, seq, value) VALUES (?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()
	for i, v := range values {
		if _, err := stmt.ExecContext(ctx, s.ID, i, v); err != nil {
			return "", fmt.Errorf("insert value %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return s.ID, nil
}

const sessionColumns = `session_id, project, sensor, started_at, ended_at,
	sample_count, mean_phase, min_phase, max_phase, warped, COALESCE(export_path, '')`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(r rowScanner) (Session, error) {
	var s Session
	var started, ended int64
	err := r.Scan(&s.ID, &s.Project, &s.Sensor, &started, &ended,
		&s.Count, &s.Mean, &s.Min, &s.Max, &s.Warped, &s.ExportPath)
	if err != nil {
		return Session{}, err
	}
	s.StartedAt = time.UnixMilli(started).UTC()
	s.EndedAt = time.UnixMilli(ended).UTC()
	return s, nil
}

// Sessions returns up to limit sessions, newest first. limit <= 0 returns all.
func (db *DB) Sessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM phase_sessions ORDER BY started_at DESC, session_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// SessionByID returns a single session.
func (db *DB) SessionByID(ctx context.Context, id string) (Session, error) {
	s, err := scanSession(db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM phase_sessions WHERE session_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	return s, err
}

// SessionValues returns the averages recorded for a session in order.
func (db *DB) SessionValues(ctx context.Context, id string) ([]float64, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT value FROM phase_values WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []float64{}
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// DeleteSession removes a session and its values.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM phase_values WHERE session_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM phase_sessions WHERE session_id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return tx.Commit()
}
