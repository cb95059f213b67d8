package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateSession inserts a new active session for the candidate.
func (db *DB) CreateSession(ctx context.Context, candidateID string) (*Session, error) {
	s := &Session{
		ID:          uuid.NewString(),
		CandidateID: candidateID,
		State:       SessionActive,
		StartedAt:   time.Now().UTC(),
	}
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO sessions (id, candidate_id, state, started_at) VALUES (?, ?, ?, ?)",
		s.ID, s.CandidateID, s.State, s.StartedAt.Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return s, nil
}

// GetSession returns the session, or ErrNotFound.
func (db *DB) GetSession(ctx context.Context, id string) (*Session, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, candidate_id, state, started_at, completed_at FROM sessions WHERE id = ?", id)
	return scanSession(row)
}

// ListSessions returns all sessions, most recently started first.
func (db *DB) ListSessions(ctx context.Context) ([]*Session, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, candidate_id, state, started_at, completed_at FROM sessions ORDER BY started_at DESC")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sessions []*Session
	for rows.Next() {
		var s Session
		var startedAt string
		var completedAt sql.NullString
		if err := rows.Scan(&s.ID, &s.CandidateID, &s.State, &startedAt, &completedAt); err != nil {
			return nil, err
		}
		s.StartedAt, _ = time.Parse(timeFormat, startedAt)
		if completedAt.Valid {
			t, _ := time.Parse(timeFormat, completedAt.String)
			s.CompletedAt = &t
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

// CompleteSession transitions the session to completed. Completing an
// already-completed session is a no-op.
func (db *DB) CompleteSession(ctx context.Context, id string) (*Session, error) {
	s, err := db.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.State == SessionCompleted {
		return s, nil
	}

	now := time.Now().UTC()
	_, err = db.conn.ExecContext(ctx,
		"UPDATE sessions SET state = ?, completed_at = ? WHERE id = ?",
		SessionCompleted, now.Format(timeFormat), id,
	)
	if err != nil {
		return nil, fmt.Errorf("completing session: %w", err)
	}
	s.State = SessionCompleted
	s.CompletedAt = &now
	return s, nil
}

func scanSession(row *sql.Row) (*Session, error) {
	var s Session
	var startedAt string
	var completedAt sql.NullString
	err := row.Scan(&s.ID, &s.CandidateID, &s.State, &startedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	s.StartedAt, _ = time.Parse(timeFormat, startedAt)
	if completedAt.Valid {
		t, _ := time.Parse(timeFormat, completedAt.String)
		s.CompletedAt = &t
	}
	return &s, nil
}
