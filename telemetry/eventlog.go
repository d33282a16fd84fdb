package telemetry

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// EventLog is an append-only SQLite log of store events, one row per event,
// tagged with the run id so several runs can share a database file.
type EventLog struct {
	conn  *sqlx.DB
	runID string
}

// OpenEventLog opens or creates the event database at path.
// Returns nil if path is empty (logging disabled).
func OpenEventLog(path, runID string) (*EventLog, error) {
	if path == "" {
		return nil, nil
	}
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}

	log := &EventLog{conn: conn, runID: runID}
	if err := log.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate event log: %w", err)
	}
	return log, nil
}

func (l *EventLog) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		time REAL NOT NULL,
		kind TEXT NOT NULL,
		species TEXT NOT NULL,
		entity_id INTEGER NOT NULL,
		other_id INTEGER NOT NULL,
		cause TEXT NOT NULL,
		value REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_run_tick ON events(run_id, tick);
	CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
	`
	_, err := l.conn.Exec(schema)
	return err
}

// RecordRun stores the run header.
func (l *EventLog) RecordRun(seed int64, startedAt string) error {
	if l == nil {
		return nil
	}
	_, err := l.conn.Exec(
		"INSERT OR REPLACE INTO runs (run_id, seed, started_at) VALUES (?, ?, ?)",
		l.runID, seed, startedAt,
	)
	return err
}

// Append writes a batch of events in one transaction.
func (l *EventLog) Append(records []EventRecord) error {
	if l == nil || len(records) == 0 {
		return nil
	}

	tx, err := l.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExec(`INSERT INTO events
		(run_id, tick, time, kind, species, entity_id, other_id, cause, value)
		VALUES (:run_id, :tick, :time, :kind, :species, :entity_id, :other_id, :cause, :value)`,
		records)
	if err != nil {
		return fmt.Errorf("insert events: %w", err)
	}
	return tx.Commit()
}

// CountByKind returns how many events of a kind this run has logged.
func (l *EventLog) CountByKind(kind string) (int, error) {
	var n int
	err := l.conn.Get(&n, "SELECT COUNT(*) FROM events WHERE run_id = ? AND kind = ?", l.runID, kind)
	return n, err
}

// Recent returns the most recent events of this run, newest first.
func (l *EventLog) Recent(limit int) ([]EventRecord, error) {
	var out []EventRecord
	err := l.conn.Select(&out,
		`SELECT run_id, tick, time, kind, species, entity_id, other_id, cause, value
		 FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?`,
		l.runID, limit)
	return out, err
}

// Close closes the database connection.
func (l *EventLog) Close() error {
	if l == nil {
		return nil
	}
	return l.conn.Close()
}
