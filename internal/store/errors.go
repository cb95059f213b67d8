package store

import (
	"errors"

	sqlite "modernc.org/sqlite"
)

// ErrNotFound is returned when a session, event, or evaluation does not
// exist. Not-found conditions are surfaced, never retried.
var ErrNotFound = errors.New("not found")

// SQLite primary result codes that indicate a transient condition.
const (
	sqliteBusy   = 5
	sqliteLocked = 6
)

// IsTransient reports whether err is a transient storage failure worth
// retrying with backoff (busy/locked contention, not constraint or schema
// errors).
func IsTransient(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code() & 0xff
		return code == sqliteBusy || code == sqliteLocked
	}
	return false
}
