// Package store provides SQLite persistence for sessions, the append-only
// event log, artifact metadata, and evaluations.
package store

import "time"

// Session lifecycle states.
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
)

// Session identifies one candidate's timed assessment attempt. A session
// owns exactly one event log.
type Session struct {
	ID          string     `json:"id"`
	CandidateID string     `json:"candidate_id"`
	State       string     `json:"state"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ArtifactRow is the metadata record for a stored artifact. The bytes
// themselves live in the blob backend, keyed by (owner, checksum).
type ArtifactRow struct {
	ID             int64     `json:"id"`
	OwnerID        string    `json:"owner_id"`
	Checksum       string    `json:"checksum"`
	Size           int64     `json:"size"`
	CompressedSize int64     `json:"compressed_size"`
	CreatedAt      time.Time `json:"created_at"`
}

// EvaluationRow is a persisted evaluation. Payload holds the full JSON
// evaluation (dimension scores, evidence, markers, report).
type EvaluationRow struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	GeneratedAt  time.Time `json:"generated_at"`
	OverallScore float64   `json:"overall_score"`
	Payload      []byte    `json:"payload"`
}
