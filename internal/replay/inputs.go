package replay

import (
	"context"
	"fmt"

	"github.com/blackwell-systems/assay/internal/analyzer"
	"github.com/blackwell-systems/assay/internal/event"
	"github.com/blackwell-systems/assay/internal/store"
)

// BuildInputs assembles the full-log analyzer view for a session. Unlike
// Seek, it never skips to a checkpoint: analyzers judge the entire session,
// including work done before a conversation reset.
func (s *Service) BuildInputs(ctx context.Context, sessionID string) (*analyzer.SessionInputs, error) {
	sess, err := s.db.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	events, err := s.db.ReadEvents(ctx, sessionID, store.Filter{})
	if err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}

	in := &analyzer.SessionInputs{SessionID: sessionID}
	for _, ev := range events {
		p, err := ev.Decoded()
		if err != nil {
			return nil, fmt.Errorf("decoding event %d: %w", ev.Sequence, err)
		}

		switch payload := p.(type) {
		case *event.ChatMessage:
			in.Transcript = append(in.Transcript, chatTurn(ev, payload))
		case *event.CodeSnapshot:
			content := payload.Content
			if content == "" && payload.Checksum != "" && s.artifacts != nil {
				raw, err := s.artifacts.Retrieve(ctx, sess.CandidateID, payload.Checksum)
				if err == nil {
					content = string(raw)
				}
			}
			in.Snapshots = append(in.Snapshots, analyzer.Snapshot{
				Path:      payload.Path,
				Content:   content,
				Language:  payload.Language,
				Timestamp: ev.Timestamp,
				EventID:   ev.ID,
				Sequence:  ev.Sequence,
			})
		case *event.TestRun:
			in.TestRuns = append(in.TestRuns, analyzer.TestRun{
				Passed:    payload.Passed,
				Failed:    payload.Failed,
				Timestamp: ev.Timestamp,
				EventID:   ev.ID,
				Sequence:  ev.Sequence,
			})
		case *event.TerminalCommand:
			in.Commands = append(in.Commands, analyzer.Command{
				Command:   payload.Command,
				Timestamp: ev.Timestamp,
				EventID:   ev.ID,
				Sequence:  ev.Sequence,
			})
		case *event.QuestionCompleted:
			in.Questions = append(in.Questions, analyzer.QuestionResult{
				QuestionID: payload.QuestionID,
				Score:      payload.Score,
				Timestamp:  ev.Timestamp,
				EventID:    ev.ID,
			})
		case *event.QuestionSkipped:
			in.Questions = append(in.Questions, analyzer.QuestionResult{
				QuestionID: payload.QuestionID,
				Skipped:    true,
				Timestamp:  ev.Timestamp,
				EventID:    ev.ID,
			})
		}
	}
	return in, nil
}
