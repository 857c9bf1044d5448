// Package session persists multi-turn conversation state. Both the request
// path and the scheduler's task body append through this store.
package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/relaygw/relay/pkg/fault"

	"github.com/google/uuid"
)

type Message struct {
	ID string

	Role    string
	Content string

	CreatedAt time.Time
}

type Session struct {
	ID string

	Title string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Messages is insertion order, which is conversation order.
	Messages []Message
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (*Store, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		title      TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id         TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		seq        INTEGER NOT NULL,
		role       TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS messages_session ON messages(session_id, seq);`

	if _, err := db.Exec(schema); err != nil {
		return nil, fault.Storage(err, "create session schema")
	}

	return &Store{
		db: db,
	}, nil
}

func (s *Store) Create(ctx context.Context, title string) (*Session, error) {
	now := time.Now()

	session := &Session{
		ID: uuid.New().String(),

		Title: title,

		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		session.ID, session.Title, now.UnixMilli(), now.UnixMilli())

	if err != nil {
		return nil, fault.Storage(err, "create session")
	}

	return session, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	var session Session
	var created, updated int64

	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at, updated_at FROM sessions WHERE id = ?`, id)

	if err := row.Scan(&session.ID, &session.Title, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.NotFound("session %q not found", id)
		}

		return nil, fault.Storage(err, "load session %q", id)
	}

	session.CreatedAt = time.UnixMilli(created)
	session.UpdatedAt = time.UnixMilli(updated)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, created_at FROM messages WHERE session_id = ? ORDER BY seq`, id)

	if err != nil {
		return nil, fault.Storage(err, "load session messages %q", id)
	}

	defer rows.Close()

	for rows.Next() {
		var m Message
		var at int64

		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &at); err != nil {
			return nil, fault.Storage(err, "scan session message")
		}

		m.CreatedAt = time.UnixMilli(at)

		session.Messages = append(session.Messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fault.Storage(err, "iterate session messages")
	}

	return &session, nil
}

// Append adds one message to a session, preserving insertion order.
func (s *Store) Append(ctx context.Context, sessionID, role, content string) error {
	now := time.Now()

	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ? WHERE id = ?`, now.UnixMilli(), sessionID)

	if err != nil {
		return fault.Storage(err, "touch session %q", sessionID)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fault.NotFound("session %q not found", sessionID)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, seq, role, content, created_at)
		 VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE session_id = ?), ?, ?, ?)`,
		uuid.New().String(), sessionID, sessionID, role, content, now.UnixMilli())

	if err != nil {
		return fault.Storage(err, "append message to session %q", sessionID)
	}

	return nil
}

func (s *Store) List(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at, updated_at FROM sessions ORDER BY updated_at DESC`)

	if err != nil {
		return nil, fault.Storage(err, "list sessions")
	}

	defer rows.Close()

	var sessions []Session

	for rows.Next() {
		var session Session
		var created, updated int64

		if err := rows.Scan(&session.ID, &session.Title, &created, &updated); err != nil {
			return nil, fault.Storage(err, "scan session")
		}

		session.CreatedAt = time.UnixMilli(created)
		session.UpdatedAt = time.UnixMilli(updated)

		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fault.Storage(err, "iterate sessions")
	}

	return sessions, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)

	if err != nil {
		return fault.Storage(err, "delete session %q", id)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fault.NotFound("session %q not found", id)
	}

	_, err = s.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, id)

	if err != nil {
		return fault.Storage(err, "delete session messages %q", id)
	}

	return nil
}
