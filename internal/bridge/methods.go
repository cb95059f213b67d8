package bridge

import (
	"context"
	"encoding/json"

	"github.com/blackwell-systems/assay/internal/event"
)

// appendResult is what every recording method returns: the type that was
// appended and the sequence number the store assigned.
type appendResult struct {
	Type     event.Type `json:"type"`
	Sequence int64      `json:"sequence"`
}

// addMethods registers the bridge's method set on s.
func addMethods(s *Server) {
	s.register("initialize", s.handleInitialize)
	s.register("record.chat", s.handleChat)
	s.register("record.reset", s.handleReset)
	s.register("record.snapshot", s.handleSnapshot)
	s.register("record.test", s.handleTest)
	s.register("record.command", s.handleCommand)
	s.register("record.output", s.handleOutput)
	s.register("question.start", s.handleQuestionStart)
	s.register("question.complete", s.handleQuestionComplete)
	s.register("question.skip", s.handleQuestionSkip)
	s.register("session.complete", s.handleSessionComplete)
}

func (s *Server) handleInitialize(ctx context.Context, _ json.RawMessage) (any, error) {
	sess, err := s.svc.Get(ctx, s.sessionID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"serverInfo": map[string]string{"name": "assay", "version": s.version},
		"session":    sess,
	}, nil
}

func (s *Server) handleChat(ctx context.Context, params json.RawMessage) (any, error) {
	var p event.ChatMessage
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	return s.result(s.svc.RecordChat(ctx, s.sessionID, &p))
}

func (s *Server) handleReset(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	return s.result(s.svc.RecordChatReset(ctx, s.sessionID, p.Reason))
}

func (s *Server) handleSnapshot(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Path     string `json:"path"`
		Language string `json:"language"`
		Content  string `json:"content"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	return s.result(s.svc.RecordSnapshot(ctx, s.sessionID, p.Path, p.Language, []byte(p.Content)))
}

func (s *Server) handleTest(ctx context.Context, params json.RawMessage) (any, error) {
	var p event.TestRun
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	return s.result(s.svc.RecordTestRun(ctx, s.sessionID, &p))
}

func (s *Server) handleCommand(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Command string `json:"command"`
		Cwd     string `json:"cwd"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	return s.result(s.svc.RecordCommand(ctx, s.sessionID, p.Command, p.Cwd))
}

func (s *Server) handleOutput(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Output string `json:"output"`
		Stream string `json:"stream"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	if p.Stream == "" {
		p.Stream = "stdout"
	}
	return s.result(s.svc.RecordOutput(ctx, s.sessionID, p.Output, p.Stream))
}

func (s *Server) handleQuestionStart(ctx context.Context, params json.RawMessage) (any, error) {
	var p event.QuestionStarted
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	return s.result(s.svc.StartQuestion(ctx, s.sessionID, &p))
}

func (s *Server) handleQuestionComplete(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		QuestionID string  `json:"question_id"`
		Score      float64 `json:"score"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	return s.result(s.svc.CompleteQuestion(ctx, s.sessionID, p.QuestionID, p.Score))
}

func (s *Server) handleQuestionSkip(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		QuestionID string `json:"question_id"`
		Reason     string `json:"reason"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	return s.result(s.svc.SkipQuestion(ctx, s.sessionID, p.QuestionID, p.Reason))
}

func (s *Server) handleSessionComplete(ctx context.Context, _ json.RawMessage) (any, error) {
	sess, err := s.svc.Complete(ctx, s.sessionID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"state": sess.State}, nil
}

func (s *Server) result(ev *event.Event, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return appendResult{Type: ev.Type, Sequence: ev.Sequence}, nil
}
