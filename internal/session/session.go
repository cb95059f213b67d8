// Package session is the recording surface: it owns session lifecycle and
// the producer helpers that turn raw capture (chat turns, snapshots,
// terminal activity, question transitions) into validated log appends.
package session

import (
	"context"
	"fmt"

	"github.com/blackwell-systems/assay/internal/artifact"
	"github.com/blackwell-systems/assay/internal/backoff"
	"github.com/blackwell-systems/assay/internal/event"
	"github.com/blackwell-systems/assay/internal/store"
)

// DefaultInlineLimit is the largest snapshot stored inline in the event
// payload. Anything bigger is offloaded to the artifact store and
// referenced by checksum.
const DefaultInlineLimit = 32 * 1024

// Service records assessment sessions. All appends go through the retry
// path so transient storage pressure degrades to a recorded gap instead of
// lost data.
type Service struct {
	db          *store.DB
	artifacts   *artifact.Store
	policy      backoff.Policy
	inlineLimit int
}

// NewService creates a recording service. artifacts may be nil when
// snapshot offloading is disabled; inlineLimit <= 0 selects the default.
func NewService(db *store.DB, artifacts *artifact.Store, policy backoff.Policy, inlineLimit int) *Service {
	if inlineLimit <= 0 {
		inlineLimit = DefaultInlineLimit
	}
	return &Service{db: db, artifacts: artifacts, policy: policy, inlineLimit: inlineLimit}
}

// Start opens a new session for the candidate.
func (s *Service) Start(ctx context.Context, candidateID string) (*store.Session, error) {
	return s.db.CreateSession(ctx, candidateID)
}

// Get returns the session, or store.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*store.Session, error) {
	return s.db.GetSession(ctx, id)
}

// List returns all sessions, most recently started first.
func (s *Service) List(ctx context.Context) ([]*store.Session, error) {
	return s.db.ListSessions(ctx)
}

// Complete transitions the session to completed. Completing twice is a
// no-op; the log stays readable forever either way.
func (s *Service) Complete(ctx context.Context, id string) (*store.Session, error) {
	return s.db.CompleteSession(ctx, id)
}

// RecordChat appends a chat turn. Role must be user or assistant.
func (s *Service) RecordChat(ctx context.Context, sessionID string, msg *event.ChatMessage) (*event.Event, error) {
	t := event.TypeChatUser
	if msg.Role == "assistant" {
		t = event.TypeChatAssistant
	}
	return s.append(ctx, sessionID, event.CategoryChat, t, msg, store.AppendOptions{})
}

// RecordChatReset appends a chat.reset event. Resets are checkpoints:
// replays from here on ignore the earlier transcript.
func (s *Service) RecordChatReset(ctx context.Context, sessionID, reason string) (*event.Event, error) {
	return s.append(ctx, sessionID, event.CategoryChat, event.TypeChatReset,
		&event.ChatReset{Reason: reason}, store.AppendOptions{Checkpoint: true})
}

// RecordSnapshot appends a code.snapshot event for one file. Content over
// the inline limit is offloaded to the artifact store under the session's
// candidate and referenced by checksum; the append itself stays small.
func (s *Service) RecordSnapshot(ctx context.Context, sessionID, path, language string, content []byte) (*event.Event, error) {
	snap := &event.CodeSnapshot{Path: path, Language: language}

	if s.artifacts != nil && len(content) > s.inlineLimit {
		sess, err := s.db.GetSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		res, err := s.artifacts.Store(ctx, sess.CandidateID, content)
		if err != nil {
			return nil, fmt.Errorf("offloading snapshot %s: %w", path, err)
		}
		snap.Checksum = res.Checksum
	} else {
		snap.Content = string(content)
	}

	return s.append(ctx, sessionID, event.CategoryCode, event.TypeCodeSnapshot,
		snap, store.AppendOptions{FilePath: path})
}

// RecordTestRun appends a code.test_run event.
func (s *Service) RecordTestRun(ctx context.Context, sessionID string, run *event.TestRun) (*event.Event, error) {
	return s.append(ctx, sessionID, event.CategoryCode, event.TypeCodeTestRun, run, store.AppendOptions{})
}

// RecordCommand appends a terminal.command event.
func (s *Service) RecordCommand(ctx context.Context, sessionID, command, cwd string) (*event.Event, error) {
	return s.append(ctx, sessionID, event.CategoryTerminal, event.TypeTerminalCommand,
		&event.TerminalCommand{Command: command, Cwd: cwd}, store.AppendOptions{})
}

// RecordOutput appends a terminal.output event.
func (s *Service) RecordOutput(ctx context.Context, sessionID, output, stream string) (*event.Event, error) {
	return s.append(ctx, sessionID, event.CategoryTerminal, event.TypeTerminalOutput,
		&event.TerminalOutput{Output: output, Stream: stream}, store.AppendOptions{})
}

// StartQuestion appends a question.started event. Question starts are
// checkpoints so replays can begin there without earlier history.
func (s *Service) StartQuestion(ctx context.Context, sessionID string, q *event.QuestionStarted) (*event.Event, error) {
	return s.append(ctx, sessionID, event.CategoryQuestion, event.TypeQuestionStarted,
		q, store.AppendOptions{Checkpoint: true})
}

// CompleteQuestion appends a question.completed event. Scores outside
// [0,1] are rejected at the append boundary.
func (s *Service) CompleteQuestion(ctx context.Context, sessionID, questionID string, score float64) (*event.Event, error) {
	return s.append(ctx, sessionID, event.CategoryQuestion, event.TypeQuestionCompleted,
		&event.QuestionCompleted{QuestionID: questionID, Score: score}, store.AppendOptions{})
}

// SkipQuestion appends a question.skipped event.
func (s *Service) SkipQuestion(ctx context.Context, sessionID, questionID, reason string) (*event.Event, error) {
	return s.append(ctx, sessionID, event.CategoryQuestion, event.TypeQuestionSkipped,
		&event.QuestionSkipped{QuestionID: questionID, Reason: reason}, store.AppendOptions{})
}

func (s *Service) append(ctx context.Context, sessionID string, c event.Category, t event.Type, p event.Payload, opts store.AppendOptions) (*event.Event, error) {
	raw, err := event.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", t, err)
	}
	return s.db.AppendWithRetry(ctx, s.policy, sessionID, c, t, raw, opts)
}
