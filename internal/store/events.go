package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/blackwell-systems/assay/internal/event"
	"github.com/blackwell-systems/assay/internal/metrics"
)

// timeFormat is the stored timestamp layout. Nanosecond precision matters
// for evidence backlinking, which resolves by nearest timestamp.
const timeFormat = time.RFC3339Nano

// AppendOptions carries the optional fields of an append.
type AppendOptions struct {
	// Checkpoint marks the event as a safe point from which replay may
	// resume without needing earlier history.
	Checkpoint bool

	// FilePath associates the event with a file (code snapshots).
	FilePath string
}

// AppendHook is invoked after every successful append, in append order.
type AppendHook func(ev *event.Event)

// SetAppendHook registers the hook used for live fan-out. Must be set
// before producers start appending.
func (db *DB) SetAppendHook(h AppendHook) {
	db.appendHook = h
}

// Append validates the payload against its registered schema and appends an
// event to the session's log. The sequence number is assigned inside a
// single INSERT statement, scoped to the session, so concurrent producers
// can never race to the same number: the store is the only sequence
// authority.
func (db *DB) Append(ctx context.Context, sessionID string, c event.Category, t event.Type, payload json.RawMessage, opts AppendOptions) (*event.Event, error) {
	if err := event.ValidateRaw(c, t, payload); err != nil {
		return nil, err
	}

	// Sessions are never deleted, so a pre-check gives clean not-found
	// semantics without racing the insert.
	if _, err := db.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	ev := &event.Event{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Timestamp:  time.Now().UTC(),
		Category:   c,
		Type:       t,
		Payload:    payload,
		Checkpoint: opts.Checkpoint,
		FilePath:   opts.FilePath,
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO events
		 (id, session_id, sequence_number, timestamp, category, event_type, payload, checkpoint, file_path)
		 VALUES (?, ?,
		   (SELECT COALESCE(MAX(sequence_number), 0) + 1 FROM events WHERE session_id = ?),
		   ?, ?, ?, ?, ?, ?)`,
		ev.ID, sessionID, sessionID,
		ev.Timestamp.Format(timeFormat), string(c), string(t), string(payload),
		ev.Checkpoint, nullable(ev.FilePath),
	)
	if err != nil {
		return nil, fmt.Errorf("appending event: %w", err)
	}

	// Read back the assigned sequence number.
	row := db.conn.QueryRowContext(ctx, "SELECT sequence_number FROM events WHERE id = ?", ev.ID)
	if err := row.Scan(&ev.Sequence); err != nil {
		return nil, fmt.Errorf("reading assigned sequence: %w", err)
	}

	metrics.EventsAppended.WithLabelValues(string(c)).Inc()

	if db.appendHook != nil {
		db.appendHook(ev)
	}

	return ev, nil
}

// Filter narrows a ReadEvents call. The zero value reads everything.
type Filter struct {
	Category   event.Category
	EventTypes []event.Type

	// SinceSeq is an exclusive cursor: only events with a sequence number
	// strictly greater are returned, so a consumer resumes from "the last
	// sequence number I saw" rather than re-reading from zero.
	SinceSeq int64

	// UntilSeq is an inclusive upper bound; 0 means unbounded.
	UntilSeq int64

	// Limit caps the page size; 0 means unlimited.
	Limit int
}

// ReadEvents returns the session's events in ascending sequence order,
// optionally filtered and paginated.
func (db *DB) ReadEvents(ctx context.Context, sessionID string, f Filter) ([]*event.Event, error) {
	query := `SELECT id, session_id, sequence_number, timestamp, category, event_type, payload, checkpoint, file_path
	          FROM events WHERE session_id = ? AND sequence_number > ?`
	args := []any{sessionID, f.SinceSeq}

	if f.UntilSeq > 0 {
		query += " AND sequence_number <= ?"
		args = append(args, f.UntilSeq)
	}
	if f.Category != "" {
		query += " AND category = ?"
		args = append(args, string(f.Category))
	}
	if len(f.EventTypes) > 0 {
		placeholders := make([]string, len(f.EventTypes))
		for i, t := range f.EventTypes {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		query += " AND event_type IN (" + strings.Join(placeholders, ",") + ")"
	}

	query += " ORDER BY sequence_number ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var events []*event.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// NearestCheckpoint returns the greatest checkpoint sequence number at or
// below target, or 0 if the session has no checkpoint in that range.
func (db *DB) NearestCheckpoint(ctx context.Context, sessionID string, target int64) (int64, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence_number), 0) FROM events
		 WHERE session_id = ? AND checkpoint AND sequence_number <= ?`,
		sessionID, target,
	)
	var seq int64
	if err := row.Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}

// CountEvents returns the total number of events in the session's log.
func (db *DB) CountEvents(ctx context.Context, sessionID string) (int64, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM events WHERE session_id = ?", sessionID)
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// LastSequence returns the highest assigned sequence number, or 0 for an
// empty log.
func (db *DB) LastSequence(ctx context.Context, sessionID string) (int64, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(sequence_number), 0) FROM events WHERE session_id = ?", sessionID)
	var seq int64
	if err := row.Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}

func scanEvent(rows *sql.Rows) (*event.Event, error) {
	var ev event.Event
	var ts, category, eventType, payload string
	var filePath sql.NullString
	if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.Sequence, &ts, &category, &eventType, &payload, &ev.Checkpoint, &filePath); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeFormat, ts)
	if err != nil {
		return nil, fmt.Errorf("parsing event timestamp %q: %w", ts, err)
	}
	ev.Timestamp = t
	ev.Category = event.Category(category)
	ev.Type = event.Type(eventType)
	ev.Payload = json.RawMessage(payload)
	ev.FilePath = filePath.String
	return &ev, nil
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
