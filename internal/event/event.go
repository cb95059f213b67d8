// Package event defines the taxonomy of session events: the immutable Event
// record, the category and type constants, and the payload schema registered
// for each (category, type) tag. Payloads are validated at the append
// boundary so readers can pattern-match on the tag instead of probing fields.
package event

import (
	"encoding/json"
	"strings"
	"time"
)

// Category groups related event types. Every event type belongs to exactly
// one category, encoded as the prefix of its dotted name.
type Category string

const (
	CategoryChat       Category = "chat"
	CategoryCode       Category = "code"
	CategoryTerminal   Category = "terminal"
	CategoryQuestion   Category = "question"
	CategoryEvaluation Category = "evaluation"
	CategorySystem     Category = "system"
)

// Type is the full dotted event type name, e.g. "chat.user".
type Type string

const (
	TypeChatUser      Type = "chat.user"
	TypeChatAssistant Type = "chat.assistant"
	TypeChatReset     Type = "chat.reset"

	TypeCodeSnapshot Type = "code.snapshot"
	TypeCodeTestRun  Type = "code.test_run"

	TypeTerminalCommand Type = "terminal.command"
	TypeTerminalOutput  Type = "terminal.output"

	TypeQuestionStarted   Type = "question.started"
	TypeQuestionCompleted Type = "question.completed"
	TypeQuestionSkipped   Type = "question.skipped"

	TypeEvaluationStarted  Type = "evaluation.started"
	TypeEvaluationComplete Type = "evaluation.complete"

	TypeSystemError Type = "system.error"
)

// CategoryOf returns the category encoded in a type's dotted prefix.
func CategoryOf(t Type) Category {
	name := string(t)
	if i := strings.IndexByte(name, '.'); i > 0 {
		return Category(name[:i])
	}
	return Category(name)
}

// Event is an immutable, sequenced record of something observed during a
// session. Sequence numbers are assigned by the store, never by producers,
// and are strictly increasing and gapless within a session.
type Event struct {
	ID         string          `json:"id"`
	SessionID  string          `json:"session_id"`
	Sequence   int64           `json:"sequence"`
	Timestamp  time.Time       `json:"timestamp"`
	Category   Category        `json:"category"`
	Type       Type            `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Checkpoint bool            `json:"checkpoint"`
	FilePath   string          `json:"file_path,omitempty"`
}

// Decoded unmarshals the event's payload into its registered typed form.
func (e *Event) Decoded() (Payload, error) {
	return Decode(e.Type, e.Payload)
}
