// Package store keeps events in a local SQLite database. It serves as both a
// mutation sink and an event source.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"plancal/internal/model"
	"plancal/internal/planner"
)

// Store is a SQLite-backed event table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open event store: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect event store: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			calendar_id TEXT NOT NULL,
			start_at INTEGER NOT NULL,
			end_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_window ON events(start_at, end_at)`,
		`CREATE INDEX IF NOT EXISTS idx_events_calendar ON events(calendar_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate event store: %w", err)
		}
	}
	return nil
}

// SaveEvent inserts or replaces ev.
func (s *Store) SaveEvent(ctx context.Context, ev model.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", ev.ID, err)
	}
	return withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO events (id, calendar_id, start_at, end_at, updated_at, payload)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				calendar_id = excluded.calendar_id,
				start_at = excluded.start_at,
				end_at = excluded.end_at,
				updated_at = excluded.updated_at,
				payload = excluded.payload`,
			ev.ID, ev.CalendarID, ev.Start.UnixNano(), ev.End.UnixNano(), ev.UpdatedAt.UnixNano(), string(payload))
		return err
	})
}

// DeleteEvent removes id. Deleting an unknown id is not an error.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	return withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
		return err
	})
}

// Events returns the stored events intersecting the query window, ordered by
// start time.
func (s *Store) Events(ctx context.Context, q planner.Query) ([]model.Event, error) {
	var (
		conds []string
		args  []any
	)
	if !q.To.IsZero() {
		conds = append(conds, "start_at <= ?")
		args = append(args, q.To.UnixNano())
	}
	if !q.From.IsZero() {
		conds = append(conds, "end_at >= ?")
		args = append(args, q.From.UnixNano())
	}
	if n := len(q.CalendarIDs); n > 0 {
		conds = append(conds, "calendar_id IN (?"+strings.Repeat(",?", n-1)+")")
		for _, id := range q.CalendarIDs {
			args = append(args, id)
		}
	}

	query := `SELECT payload FROM events`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY start_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	out := make([]model.Event, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		ev, err := decode(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Count returns the number of stored events.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

func decode(payload string) (model.Event, error) {
	var ev model.Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return model.Event{}, fmt.Errorf("decode stored event: %w", err)
	}
	return ev, nil
}
