package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SaveEvaluation inserts a fresh evaluation row. Evaluations are never
// mutated in place; regeneration writes a new row and LatestEvaluation
// picks the most recent.
func (db *DB) SaveEvaluation(ctx context.Context, e *EvaluationRow) error {
	if e.GeneratedAt.IsZero() {
		e.GeneratedAt = time.Now().UTC()
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO evaluations (id, session_id, generated_at, overall_score, payload)
		 VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.GeneratedAt.Format(timeFormat), e.OverallScore, string(e.Payload),
	)
	if err != nil {
		return fmt.Errorf("saving evaluation: %w", err)
	}
	return nil
}

// LatestEvaluation returns the most recent evaluation for the session, or
// ErrNotFound if the session has never been evaluated. The UI uses the
// distinction to tell "not yet evaluated" apart from a failed run.
func (db *DB) LatestEvaluation(ctx context.Context, sessionID string) (*EvaluationRow, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, session_id, generated_at, overall_score, payload
		 FROM evaluations WHERE session_id = ?
		 ORDER BY generated_at DESC LIMIT 1`,
		sessionID,
	)
	var e EvaluationRow
	var generatedAt, payload string
	err := row.Scan(&e.ID, &e.SessionID, &generatedAt, &e.OverallScore, &payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("evaluation for session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	e.GeneratedAt, _ = time.Parse(timeFormat, generatedAt)
	e.Payload = []byte(payload)
	return &e, nil
}
