// Package replay reconstructs cumulative session state as of any point in
// the event log. Seeks start from the nearest checkpoint at or before the
// target and apply only the remaining deltas, so a deep seek never replays
// an entire session from zero.
package replay

import (
	"context"
	"fmt"

	"github.com/blackwell-systems/assay/internal/analyzer"
	"github.com/blackwell-systems/assay/internal/artifact"
	"github.com/blackwell-systems/assay/internal/event"
	"github.com/blackwell-systems/assay/internal/store"
)

// State is the reconstructed session view at a sequence number: the file
// tree, the chat transcript, the terminal scrollback, and the test runs
// observed so far.
type State struct {
	SessionID string `json:"session_id"`

	// Sequence is the target the seek reached.
	Sequence int64 `json:"sequence"`

	// FromCheckpoint is the checkpoint sequence replay resumed from, 0 if
	// the whole prefix was replayed.
	FromCheckpoint int64 `json:"from_checkpoint"`

	// TotalEvents is the log length, for timeline positioning.
	TotalEvents int64 `json:"total_events"`

	Files      map[string]string   `json:"files"`
	Transcript []analyzer.ChatTurn `json:"transcript"`
	Scrollback []string            `json:"scrollback"`
	TestRuns   []analyzer.TestRun  `json:"test_runs"`
}

// Service replays session logs. The artifact store is optional; without it,
// snapshot events that reference offloaded content reconstruct with empty
// file bodies rather than failing the seek.
type Service struct {
	db        *store.DB
	artifacts *artifact.Store
}

// New creates a replay service.
func New(db *store.DB, artifacts *artifact.Store) *Service {
	return &Service{db: db, artifacts: artifacts}
}

// Seek reconstructs session state as of target: every event from the
// nearest checkpoint at or before target, up to and including target, is
// applied in sequence order.
func (s *Service) Seek(ctx context.Context, sessionID string, target int64) (*State, error) {
	sess, err := s.db.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cp, err := s.db.NearestCheckpoint(ctx, sessionID, target)
	if err != nil {
		return nil, fmt.Errorf("finding checkpoint: %w", err)
	}

	since := int64(0)
	if cp > 0 {
		since = cp - 1 // SinceSeq is exclusive; the checkpoint event itself is applied
	}
	events, err := s.db.ReadEvents(ctx, sessionID, store.Filter{SinceSeq: since, UntilSeq: target})
	if err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}

	total, err := s.db.CountEvents(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	state := &State{
		SessionID:      sessionID,
		Sequence:       target,
		FromCheckpoint: cp,
		TotalEvents:    total,
		Files:          make(map[string]string),
	}
	for _, ev := range events {
		if err := s.apply(ctx, state, sess.CandidateID, ev); err != nil {
			return nil, fmt.Errorf("applying event %d: %w", ev.Sequence, err)
		}
	}
	return state, nil
}

// apply folds one event into the state.
func (s *Service) apply(ctx context.Context, state *State, ownerID string, ev *event.Event) error {
	p, err := ev.Decoded()
	if err != nil {
		return err
	}

	switch payload := p.(type) {
	case *event.ChatMessage:
		state.Transcript = append(state.Transcript, chatTurn(ev, payload))
	case *event.ChatReset:
		state.Transcript = nil
	case *event.CodeSnapshot:
		content := payload.Content
		if content == "" && payload.Checksum != "" && s.artifacts != nil {
			raw, err := s.artifacts.Retrieve(ctx, ownerID, payload.Checksum)
			if err == nil {
				content = string(raw)
			}
		}
		state.Files[payload.Path] = content
	case *event.TestRun:
		state.TestRuns = append(state.TestRuns, analyzer.TestRun{
			Passed:    payload.Passed,
			Failed:    payload.Failed,
			Timestamp: ev.Timestamp,
			EventID:   ev.ID,
			Sequence:  ev.Sequence,
		})
	case *event.TerminalCommand:
		state.Scrollback = append(state.Scrollback, "$ "+payload.Command)
	case *event.TerminalOutput:
		state.Scrollback = append(state.Scrollback, payload.Output)
	default:
		// Question, evaluation, and system events do not alter the
		// reconstructed workspace view.
	}
	return nil
}

func chatTurn(ev *event.Event, m *event.ChatMessage) analyzer.ChatTurn {
	return analyzer.ChatTurn{
		Role:         m.Role,
		Content:      m.Content,
		TokensIn:     m.TokensIn,
		TokensOut:    m.TokensOut,
		ToolsInvoked: m.ToolsInvoked,
		Timestamp:    ev.Timestamp,
		EventID:      ev.ID,
		Sequence:     ev.Sequence,
	}
}
