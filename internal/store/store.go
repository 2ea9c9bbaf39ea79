// Package store is the Usage Store: a single SQLite file recording every
// filtered invocation as an event, the last-synced cursor, and a bounded
// per-project replay history.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps SQLite access for usage events, sync cursor state, and
// history. One Store is opened, used, and closed within a single CLI
// invocation -- the on-disk file is the only thing shared across
// invocations, and SQLite serializes writes against it itself.
type Store struct {
	db *sql.DB
}

// ErrConflict names a uniqueness conflict the caller should treat as
// "already done", not a hard failure. No Store method returns it.
var ErrConflict = errors.New("store: conflict")

// Open creates (if needed) and migrates the SQLite file at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// migration is one forward-only schema step, recorded in the migrations
// table by Version so a file is never migrated twice.
type migration struct {
	Version int
	SQL     []string
}

var migrations = []migration{
	{
		Version: 1,
		SQL: []string{
			`CREATE TABLE IF NOT EXISTS migrations (version INTEGER PRIMARY KEY, applied_at TIMESTAMP);`,
			`CREATE TABLE IF NOT EXISTS events (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				recorded_at TIMESTAMP NOT NULL,
				command TEXT NOT NULL,
				filter_name TEXT,
				filter_hash TEXT,
				input_bytes INTEGER NOT NULL,
				output_bytes INTEGER NOT NULL,
				input_tokens_est INTEGER NOT NULL,
				output_tokens_est INTEGER NOT NULL,
				filter_time_ms INTEGER NOT NULL,
				exit_code INTEGER NOT NULL,
				pipe_override INTEGER NOT NULL
			);`,
			`CREATE TABLE IF NOT EXISTS sync_state (key TEXT PRIMARY KEY, value TEXT);`,
			// No AUTOINCREMENT: plain rowid aliasing reuses 1 once the table
			// is emptied, which is what lets ids restart after ClearHistory.
			`CREATE TABLE IF NOT EXISTS history (
				id INTEGER PRIMARY KEY,
				timestamp TIMESTAMP NOT NULL,
				project TEXT NOT NULL,
				command TEXT NOT NULL,
				filter_name TEXT,
				raw_output TEXT NOT NULL,
				filtered_output TEXT NOT NULL,
				exit_code INTEGER NOT NULL
			);`,
			`CREATE INDEX IF NOT EXISTS idx_history_project ON history(project, id);`,
		},
	},
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS migrations (version INTEGER PRIMARY KEY, applied_at TIMESTAMP);`); err != nil {
		return fmt.Errorf("store: bootstrap migrations table: %w", err)
	}
	applied := map[int]bool{}
	rows, err := s.db.QueryContext(ctx, `SELECT version FROM migrations`)
	if err != nil {
		return fmt.Errorf("store: read migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("store: scan migration version: %w", err)
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("store: read migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("store: begin migration %d: %w", m.Version, err)
		}
		for _, stmt := range m.SQL {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("store: migration %d: %w", m.Version, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO migrations(version, applied_at) VALUES(?, ?)`, m.Version, time.Now().UTC()); err != nil {
			tx.Rollback()
			return fmt.Errorf("store: record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("store: commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// UsageEvent is one recorded invocation.
type UsageEvent struct {
	ID              int64
	RecordedAt      time.Time
	Command         string
	FilterName      *string
	FilterHash      *string
	InputBytes      int64
	OutputBytes     int64
	InputTokensEst  int64
	OutputTokensEst int64
	FilterTimeMS    int64
	ExitCode        int
	PipeOverride    bool
	Synced          bool
}

// RecordEvent inserts a usage event and returns its assigned monotonic id.
func (s *Store) RecordEvent(ctx context.Context, e UsageEvent) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO events(
		recorded_at, command, filter_name, filter_hash, input_bytes, output_bytes,
		input_tokens_est, output_tokens_est, filter_time_ms, exit_code, pipe_override
	) VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		e.RecordedAt, e.Command, e.FilterName, e.FilterHash, e.InputBytes, e.OutputBytes,
		e.InputTokensEst, e.OutputTokensEst, e.FilterTimeMS, e.ExitCode, boolToInt(e.PipeOverride))
	if err != nil {
		return 0, fmt.Errorf("store: record event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: record event id: %w", err)
	}
	return id, nil
}

// LastSyncedID returns sync_state's last_synced_id, or 0 if unset.
func (s *Store) LastSyncedID(ctx context.Context) (int64, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM sync_state WHERE key = 'last_synced_id'`)
	var v string
	switch err := row.Scan(&v); {
	case err == sql.ErrNoRows:
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("store: read last_synced_id: %w", err)
	}
	var id int64
	if _, err := fmt.Sscanf(v, "%d", &id); err != nil {
		return 0, fmt.Errorf("store: parse last_synced_id: %w", err)
	}
	return id, nil
}

// LastSyncedAt returns sync_state's last_synced_at, or the zero time if unset.
func (s *Store) LastSyncedAt(ctx context.Context) (time.Time, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM sync_state WHERE key = 'last_synced_at'`)
	var v string
	switch err := row.Scan(&v); {
	case err == sql.ErrNoRows:
		return time.Time{}, nil
	case err != nil:
		return time.Time{}, fmt.Errorf("store: read last_synced_at: %w", err)
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("store: parse last_synced_at: %w", err)
	}
	return t, nil
}

// SetCursor stores the sync cursor and its timestamp transactionally. It
// writes id as given and does not compare it with the stored cursor; the
// sync command in cmd/tokf only passes a cursor that is at least the one it
// read, so the stored cursor never regresses.
func (s *Store) SetCursor(ctx context.Context, id int64, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: set cursor: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO sync_state(key, value) VALUES('last_synced_id', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, fmt.Sprintf("%d", id)); err != nil {
		return fmt.Errorf("store: set cursor id: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO sync_state(key, value) VALUES('last_synced_at', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, at.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("store: set cursor time: %w", err)
	}
	return tx.Commit()
}

// PendingCount returns the number of events with id > last_synced_id.
func (s *Store) PendingCount(ctx context.Context) (int64, error) {
	cursor, err := s.LastSyncedID(ctx)
	if err != nil {
		return 0, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE id > ?`, cursor)
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("store: pending count: %w", err)
	}
	return n, nil
}

// PendingEvents returns events with id > last_synced_id in ascending id
// order, capped at limit (0 means unbounded).
func (s *Store) PendingEvents(ctx context.Context, limit int) ([]UsageEvent, error) {
	cursor, err := s.LastSyncedID(ctx)
	if err != nil {
		return nil, err
	}
	query := `SELECT id, recorded_at, command, filter_name, filter_hash, input_bytes, output_bytes,
		input_tokens_est, output_tokens_est, filter_time_ms, exit_code, pipe_override
		FROM events WHERE id > ? ORDER BY id ASC`
	args := []any{cursor}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: pending events: %w", err)
	}
	defer rows.Close()

	var out []UsageEvent
	for rows.Next() {
		var e UsageEvent
		var filterName, filterHash sql.NullString
		var pipeOverride int
		if err := rows.Scan(&e.ID, &e.RecordedAt, &e.Command, &filterName, &filterHash,
			&e.InputBytes, &e.OutputBytes, &e.InputTokensEst, &e.OutputTokensEst,
			&e.FilterTimeMS, &e.ExitCode, &pipeOverride); err != nil {
			return nil, fmt.Errorf("store: scan event: %w", err)
		}
		if filterName.Valid {
			e.FilterName = &filterName.String
		}
		if filterHash.Valid {
			e.FilterHash = &filterHash.String
		}
		e.PipeOverride = pipeOverride != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// BackfillFilterHashes sets filter_hash for every event whose filter_hash
// is null, using known[filter_name]. Returns the filter names encountered
// that had no entry in known, so the caller can report them.
func (s *Store) BackfillFilterHashes(ctx context.Context, known map[string]string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, filter_name FROM events WHERE filter_hash IS NULL AND filter_name IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("store: backfill scan: %w", err)
	}
	type pending struct {
		id   int64
		name string
	}
	var rowsOut []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("store: backfill scan row: %w", err)
		}
		rowsOut = append(rowsOut, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: backfill scan: %w", err)
	}

	unrecognizedSeen := map[string]bool{}
	var unrecognized []string
	for _, p := range rowsOut {
		hash, ok := known[p.name]
		if !ok {
			if !unrecognizedSeen[p.name] {
				unrecognizedSeen[p.name] = true
				unrecognized = append(unrecognized, p.name)
			}
			continue
		}
		if _, err := s.db.ExecContext(ctx, `UPDATE events SET filter_hash = ? WHERE id = ?`, hash, p.id); err != nil {
			return nil, fmt.Errorf("store: backfill update %d: %w", p.id, err)
		}
	}
	return unrecognized, nil
}

// HistoryRecord is one bounded replay-log row.
type HistoryRecord struct {
	ID             int64
	Timestamp      time.Time
	Project        string
	Command        string
	FilterName     *string
	RawOutput      string
	FilteredOutput string
	ExitCode       int
}

// DefaultRetentionCount is how many history rows survive per project after
// each insert, absent an explicit override.
const DefaultRetentionCount = 10

// AppendHistory inserts a history row, then truncates the project's history
// to retentionCount most-recent rows (0 uses DefaultRetentionCount).
func (s *Store) AppendHistory(ctx context.Context, rec HistoryRecord, retentionCount int) error {
	if retentionCount <= 0 {
		retentionCount = DefaultRetentionCount
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: append history: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO history(timestamp, project, command, filter_name, raw_output, filtered_output, exit_code)
		VALUES(?,?,?,?,?,?,?)`, rec.Timestamp, rec.Project, rec.Command, rec.FilterName, rec.RawOutput, rec.FilteredOutput, rec.ExitCode); err != nil {
		return fmt.Errorf("store: append history: %w", err)
	}

	// Truncate to the retentionCount most-recent rows for this project --
	// the same select-then-act shape backfill.SelectPending uses, here
	// expressed as a single correlated DELETE rather than a Go-side sort.
	if _, err := tx.ExecContext(ctx, `DELETE FROM history WHERE project = ? AND id NOT IN (
		SELECT id FROM history WHERE project = ? ORDER BY id DESC LIMIT ?
	)`, rec.Project, rec.Project, retentionCount); err != nil {
		return fmt.Errorf("store: truncate history: %w", err)
	}

	return tx.Commit()
}

// ClearHistory removes history rows. If project is nil, all projects'
// history is removed, and the next AppendHistory call gets id 1 again --
// history is a wholly separate table from events, whose ids are never
// touched or reused.
func (s *Store) ClearHistory(ctx context.Context, project *string) error {
	var err error
	if project == nil {
		_, err = s.db.ExecContext(ctx, `DELETE FROM history`)
	} else {
		_, err = s.db.ExecContext(ctx, `DELETE FROM history WHERE project = ?`, *project)
	}
	if err != nil {
		return fmt.Errorf("store: clear history: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Health confirms the database connection is usable.
func (s *Store) Health(ctx context.Context) error {
	row := s.db.QueryRowContext(ctx, `SELECT 1`)
	var v int
	if err := row.Scan(&v); err != nil {
		return fmt.Errorf("store: health: %w", err)
	}
	return nil
}
