package task

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/relaygw/relay/pkg/fault"
)

// Store persists task definitions and their lazily bound session ids.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (*Store, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL DEFAULT '',
		request     TEXT NOT NULL,
		interval_s  INTEGER NOT NULL,
		immediate   INTEGER NOT NULL DEFAULT 0,
		provider    TEXT NOT NULL DEFAULT '',
		model       TEXT NOT NULL DEFAULT '',
		session_id  TEXT NOT NULL DEFAULT '',
		created_at  INTEGER NOT NULL
	);`

	if _, err := db.Exec(schema); err != nil {
		return nil, fault.Storage(err, "create task schema")
	}

	return &Store{
		db: db,
	}, nil
}

func (s *Store) Save(ctx context.Context, def Definition) error {
	immediate := 0

	if def.ExecuteImmediately {
		immediate = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tasks (id, title, request, interval_s, immediate, provider, model, session_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, COALESCE((SELECT session_id FROM tasks WHERE id = ?), ''), ?)`,
		def.ID, def.Title, def.Request, int64(def.Interval.Seconds()), immediate,
		def.Provider, def.Model, def.ID, def.CreatedAt.UnixMilli())

	if err != nil {
		return fault.Storage(err, "save task %q", def.ID)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)

	if err != nil {
		return fault.Storage(err, "delete task %q", id)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fault.NotFound("task %q not found", id)
	}

	return nil
}

// Bind records the session a task writes to. Set once, after the task's
// first successful execution.
func (s *Store) Bind(ctx context.Context, id, sessionID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET session_id = ? WHERE id = ?`, sessionID, id)

	if err != nil {
		return fault.Storage(err, "bind task %q", id)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fault.NotFound("task %q not found", id)
	}

	return nil
}

func (s *Store) List(ctx context.Context) ([]Definition, map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, request, interval_s, immediate, provider, model, session_id, created_at FROM tasks ORDER BY created_at`)

	if err != nil {
		return nil, nil, fault.Storage(err, "list tasks")
	}

	defer rows.Close()

	var defs []Definition
	bindings := map[string]string{}

	for rows.Next() {
		var def Definition
		var interval, created int64
		var immediate int
		var sessionID string

		if err := rows.Scan(&def.ID, &def.Title, &def.Request, &interval, &immediate, &def.Provider, &def.Model, &sessionID, &created); err != nil {
			return nil, nil, fault.Storage(err, "scan task")
		}

		def.Interval = time.Duration(interval) * time.Second
		def.ExecuteImmediately = immediate != 0
		def.CreatedAt = time.UnixMilli(created)

		defs = append(defs, def)

		if sessionID != "" {
			bindings[def.ID] = sessionID
		}
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fault.Storage(err, "iterate tasks")
	}

	return defs, bindings, nil
}

func (s *Store) Get(ctx context.Context, id string) (Definition, string, error) {
	var def Definition
	var interval, created int64
	var immediate int
	var sessionID string

	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, request, interval_s, immediate, provider, model, session_id, created_at FROM tasks WHERE id = ?`, id)

	if err := row.Scan(&def.ID, &def.Title, &def.Request, &interval, &immediate, &def.Provider, &def.Model, &sessionID, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Definition{}, "", fault.NotFound("task %q not found", id)
		}

		return Definition{}, "", fault.Storage(err, "load task %q", id)
	}

	def.Interval = time.Duration(interval) * time.Second
	def.ExecuteImmediately = immediate != 0
	def.CreatedAt = time.UnixMilli(created)

	return def, sessionID, nil
}
