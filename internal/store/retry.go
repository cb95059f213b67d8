package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/blackwell-systems/assay/internal/backoff"
	"github.com/blackwell-systems/assay/internal/event"
	"github.com/blackwell-systems/assay/internal/metrics"
)

// appendFn is the raw append operation the retry loop drives. Split out so
// tests can inject storage failures without racing a real lock.
type appendFn func(ctx context.Context, sessionID string, c event.Category, t event.Type, payload json.RawMessage, opts AppendOptions) (*event.Event, error)

// AppendWithRetry appends an event, retrying transient storage failures
// with bounded exponential backoff. If the budget is exhausted it appends a
// system.error event in place of the failed one, so the audit trail records
// the gap explicitly instead of dropping data silently.
//
// On fallback the system.error event is returned together with the original
// error; validation and not-found errors are returned immediately without
// retrying.
func (db *DB) AppendWithRetry(ctx context.Context, policy backoff.Policy, sessionID string, c event.Category, t event.Type, payload json.RawMessage, opts AppendOptions) (*event.Event, error) {
	return db.appendWithRetry(ctx, policy, IsTransient, db.Append, sessionID, c, t, payload, opts)
}

func (db *DB) appendWithRetry(ctx context.Context, policy backoff.Policy, transient func(error) bool, do appendFn, sessionID string, c event.Category, t event.Type, payload json.RawMessage, opts AppendOptions) (*event.Event, error) {
	var ev *event.Event
	attempt := 0
	err := backoff.Retry(ctx, policy, transient, func() error {
		attempt++
		if attempt > 1 {
			metrics.AppendRetries.Inc()
		}
		var appendErr error
		ev, appendErr = do(ctx, sessionID, c, t, payload, opts)
		return appendErr
	})
	if err == nil {
		return ev, nil
	}
	if !transient(err) {
		return nil, err
	}

	// Retries exhausted: record the gap.
	metrics.AppendFallbacks.Inc()
	sysPayload, merr := event.Marshal(&event.SystemError{
		Op:       string(t),
		Message:  err.Error(),
		Attempts: attempt,
	})
	if merr != nil {
		return nil, fmt.Errorf("marshaling system.error payload: %w", merr)
	}
	fallback, ferr := db.Append(ctx, sessionID, event.CategorySystem, event.TypeSystemError, sysPayload, AppendOptions{})
	if ferr != nil {
		return nil, fmt.Errorf("append failed (%v) and system.error fallback failed: %w", err, ferr)
	}
	return fallback, fmt.Errorf("append recorded as system.error after %d attempts: %w", attempt, err)
}
