// Package store provides embedded relational persistence for runs,
// signals, and findings, backed by the pure-Go modernc.org/sqlite driver.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/duskwatch/sentinel/internal/sentinel/core"
	"golang.org/x/time/rate"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL,
	ended_at INTEGER NOT NULL,
	scope_hash TEXT NOT NULL,
	config_hash TEXT NOT NULL,
	manifest_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS signals (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	dedupe_key TEXT NOT NULL,
	signal_type TEXT NOT NULL,
	subject TEXT NOT NULL,
	source TEXT NOT NULL,
	evidence_ref TEXT NOT NULL,
	confidence INTEGER NOT NULL,
	severity TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	data_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_signals_run_id ON signals(run_id);
CREATE INDEX IF NOT EXISTS idx_signals_dedupe_key ON signals(dedupe_key);

CREATE TABLE IF NOT EXISTS findings (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	severity TEXT NOT NULL,
	confidence INTEGER NOT NULL,
	rationale TEXT NOT NULL,
	data_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_findings_run_id ON findings(run_id);
`

// Store wraps a single-file SQLite database holding run history.
type Store struct {
	db *sql.DB

	// purgeLimiter throttles the delete statements issued by
	// PurgeOlderThan when called in a tight retention-sweep loop.
	purgeLimiter *rate.Limiter
}

// Open creates (if necessary) and opens the database at path, initializing
// the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, core.NewError(core.ErrorKindIO, "opening store database", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, core.NewError(core.ErrorKindIO, "initializing store schema", err)
	}
	return &Store{
		db:           db,
		purgeLimiter: rate.NewLimiter(rate.Limit(5), 1),
	}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// StoreRun persists a completed run's manifest, signals, and findings in a
// single transaction. Writes use INSERT OR REPLACE, so replaying the same
// run_id is idempotent at the row level.
func (s *Store) StoreRun(runID string, manifest *core.Manifest, startedAt, endedAt time.Time, scopeHash, configHash string, signals []core.Signal, findings []core.Finding) error {
	tx, err := s.db.Begin()
	if err != nil {
		return core.NewError(core.ErrorKindIO, "beginning store transaction", err)
	}
	defer tx.Rollback()

	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return core.NewError(core.ErrorKindIO, "marshaling manifest", err)
	}

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO runs (run_id, started_at, ended_at, scope_hash, config_hash, manifest_json) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, startedAt.UTC().UnixNano(), endedAt.UTC().UnixNano(), scopeHash, configHash, string(manifestJSON),
	)
	if err != nil {
		return core.NewError(core.ErrorKindIO, "writing run row", err)
	}

	for _, sig := range signals {
		data, err := json.Marshal(sig)
		if err != nil {
			return core.NewError(core.ErrorKindIO, "marshaling signal", err)
		}
		_, err = tx.Exec(
			`INSERT OR REPLACE INTO signals (id, run_id, dedupe_key, signal_type, subject, source, evidence_ref, confidence, severity, timestamp, data_json) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sig.ID, runID, sig.DedupeKey, string(sig.SignalType), sig.Subject, sig.Source, sig.EvidenceRef, sig.Confidence, string(sig.Severity), sig.Timestamp.UTC().UnixNano(), string(data),
		)
		if err != nil {
			return core.NewError(core.ErrorKindIO, "writing signal row", err)
		}
	}

	for _, f := range findings {
		data, err := json.Marshal(f)
		if err != nil {
			return core.NewError(core.ErrorKindIO, "marshaling finding", err)
		}
		_, err = tx.Exec(
			`INSERT OR REPLACE INTO findings (id, run_id, severity, confidence, rationale, data_json) VALUES (?, ?, ?, ?, ?, ?)`,
			f.ID, runID, string(f.Severity), f.Confidence, f.Rationale, string(data),
		)
		if err != nil {
			return core.NewError(core.ErrorKindIO, "writing finding row", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.NewError(core.ErrorKindIO, "committing store transaction", err)
	}

	return nil
}

// LatestSignals returns the signals belonging to the run with the maximum
// started_at.
func (s *Store) LatestSignals() ([]core.Signal, error) {
	runID, err := s.latestRunID()
	if err != nil {
		return nil, err
	}
	if runID == "" {
		return nil, nil
	}
	return s.signalsForRun(runID)
}

// LatestFindings returns the findings belonging to the run with the maximum
// started_at.
func (s *Store) LatestFindings() ([]core.Finding, error) {
	runID, err := s.latestRunID()
	if err != nil {
		return nil, err
	}
	if runID == "" {
		return nil, nil
	}
	return s.findingsForRun(runID)
}

func (s *Store) latestRunID() (string, error) {
	var runID string
	err := s.db.QueryRow(`SELECT run_id FROM runs ORDER BY started_at DESC LIMIT 1`).Scan(&runID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", core.NewError(core.ErrorKindIO, "querying latest run", err)
	}
	return runID, nil
}

func (s *Store) signalsForRun(runID string) ([]core.Signal, error) {
	rows, err := s.db.Query(`SELECT data_json FROM signals WHERE run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, core.NewError(core.ErrorKindIO, "querying signals", err)
	}
	defer rows.Close()

	var out []core.Signal
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, core.NewError(core.ErrorKindIO, "scanning signal row", err)
		}
		var sig core.Signal
		if err := json.Unmarshal([]byte(data), &sig); err != nil {
			return nil, core.NewError(core.ErrorKindParse, "unmarshaling signal row", err)
		}
		out = append(out, sig)
	}
	return out, nil
}

func (s *Store) findingsForRun(runID string) ([]core.Finding, error) {
	rows, err := s.db.Query(`SELECT data_json FROM findings WHERE run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, core.NewError(core.ErrorKindIO, "querying findings", err)
	}
	defer rows.Close()

	var out []core.Finding
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, core.NewError(core.ErrorKindIO, "scanning finding row", err)
		}
		var f core.Finding
		if err := json.Unmarshal([]byte(data), &f); err != nil {
			return nil, core.NewError(core.ErrorKindParse, "unmarshaling finding row", err)
		}
		out = append(out, f)
	}
	return out, nil
}

// PurgeOlderThan deletes rows in all three tables whose associated run
// started before now-days. It is a no-op when days is 0. Each DELETE
// statement is throttled through purgeLimiter, guarding against disk churn
// when called from a tight retention-sweep loop.
func (s *Store) PurgeOlderThan(ctx context.Context, days int) error {
	if days <= 0 {
		return nil
	}
	cutoff := core.NowUTC().AddDate(0, 0, -days).UnixNano()
	m := core.GetMetrics()

	for _, stmt := range []struct {
		table string
		query string
	}{
		{"signals", `DELETE FROM signals WHERE run_id IN (SELECT run_id FROM runs WHERE started_at < ?)`},
		{"findings", `DELETE FROM findings WHERE run_id IN (SELECT run_id FROM runs WHERE started_at < ?)`},
		{"runs", `DELETE FROM runs WHERE started_at < ?`},
	} {
		if err := s.purgeLimiter.Wait(ctx); err != nil {
			return core.NewError(core.ErrorKindIO, "throttling purge", err)
		}
		result, err := s.db.Exec(stmt.query, cutoff)
		if err != nil {
			return core.NewError(core.ErrorKindIO, fmt.Sprintf("purging %s", stmt.table), err)
		}
		rows, _ := result.RowsAffected()
		m.RecordPurge(stmt.table, rows)
	}
	return nil
}
