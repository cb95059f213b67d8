package event

// Payload is a typed event payload. Validate is called once, at the append
// boundary; stored payloads are trusted on read.
type Payload interface {
	Validate() error
}

// ChatMessage is the payload for chat.user and chat.assistant events. For
// assistant turns it carries the finished interaction record produced by the
// coding agent: content, token counts, tools invoked, files touched. The
// agent itself is outside this core.
type ChatMessage struct {
	Role         string   `json:"role"`
	Content      string   `json:"content"`
	TokensIn     int      `json:"tokens_in,omitempty"`
	TokensOut    int      `json:"tokens_out,omitempty"`
	ToolsInvoked []string `json:"tools_invoked,omitempty"`
	FilesTouched []string `json:"files_touched,omitempty"`
}

func (p *ChatMessage) Validate() error {
	if p.Role != "user" && p.Role != "assistant" {
		return Invalid("role", "must be user or assistant, got %q", p.Role)
	}
	if p.Content == "" {
		return Invalid("content", "must not be empty")
	}
	return nil
}

// ChatReset is the payload for chat.reset events. Resets are checkpoints:
// the transcript before a reset is irrelevant to everything after it.
type ChatReset struct {
	Reason string `json:"reason,omitempty"`
}

func (p *ChatReset) Validate() error { return nil }

// CodeSnapshot is the payload for code.snapshot events. Small snapshots
// carry content inline; large ones are offloaded to the artifact store and
// referenced by checksum.
type CodeSnapshot struct {
	Path     string `json:"path"`
	Content  string `json:"content,omitempty"`
	Checksum string `json:"checksum,omitempty"`
	Language string `json:"language,omitempty"`
}

func (p *CodeSnapshot) Validate() error {
	if p.Path == "" {
		return Invalid("path", "must not be empty")
	}
	if p.Content == "" && p.Checksum == "" {
		return Invalid("content", "snapshot needs inline content or an artifact checksum")
	}
	return nil
}

// TestRun is the payload for code.test_run events.
type TestRun struct {
	Passed int    `json:"passed"`
	Failed int    `json:"failed"`
	Suite  string `json:"suite,omitempty"`
}

func (p *TestRun) Validate() error {
	if p.Passed < 0 || p.Failed < 0 {
		return Invalid("counts", "passed and failed must be non-negative")
	}
	return nil
}

// Total returns the total number of test cases in the run.
func (p *TestRun) Total() int { return p.Passed + p.Failed }

// PassRatio returns the fraction of passing tests, or 0 for an empty run.
func (p *TestRun) PassRatio() float64 {
	if p.Total() == 0 {
		return 0
	}
	return float64(p.Passed) / float64(p.Total())
}

// TerminalCommand is the payload for terminal.command events.
type TerminalCommand struct {
	Command string `json:"command"`
	Cwd     string `json:"cwd,omitempty"`
}

func (p *TerminalCommand) Validate() error {
	if p.Command == "" {
		return Invalid("command", "must not be empty")
	}
	return nil
}

// TerminalOutput is the payload for terminal.output events.
type TerminalOutput struct {
	Output string `json:"output"`
	Stream string `json:"stream,omitempty"` // "stdout" or "stderr"
}

func (p *TerminalOutput) Validate() error {
	if p.Stream != "" && p.Stream != "stdout" && p.Stream != "stderr" {
		return Invalid("stream", "must be stdout or stderr, got %q", p.Stream)
	}
	return nil
}

// QuestionStarted is the payload for question.started events. Starting a
// question is a checkpoint: earlier history is not needed to replay from it.
type QuestionStarted struct {
	QuestionID string `json:"question_id"`
	Title      string `json:"title,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

func (p *QuestionStarted) Validate() error {
	if p.QuestionID == "" {
		return Invalid("question_id", "must not be empty")
	}
	return nil
}

// QuestionCompleted is the payload for question.completed events. Scores
// come from the external question controller and must lie in [0,1],
// boundaries inclusive.
type QuestionCompleted struct {
	QuestionID string  `json:"question_id"`
	Score      float64 `json:"score"`
}

func (p *QuestionCompleted) Validate() error {
	if p.QuestionID == "" {
		return Invalid("question_id", "must not be empty")
	}
	if p.Score < 0 || p.Score > 1 {
		return Invalid("score", "must be in [0,1], got %v", p.Score)
	}
	return nil
}

// QuestionSkipped is the payload for question.skipped events.
type QuestionSkipped struct {
	QuestionID string `json:"question_id"`
	Reason     string `json:"reason,omitempty"`
}

func (p *QuestionSkipped) Validate() error {
	if p.QuestionID == "" {
		return Invalid("question_id", "must not be empty")
	}
	return nil
}

// EvaluationStarted is the payload for evaluation.started events.
type EvaluationStarted struct {
	TriggeredBy string `json:"triggered_by,omitempty"`
}

func (p *EvaluationStarted) Validate() error { return nil }

// EvaluationComplete is the payload for evaluation.complete events.
type EvaluationComplete struct {
	EvaluationID string  `json:"evaluation_id,omitempty"`
	OverallScore float64 `json:"overall_score"`
}

func (p *EvaluationComplete) Validate() error {
	if p.OverallScore < 0 || p.OverallScore > 100 {
		return Invalid("overall_score", "must be in [0,100], got %v", p.OverallScore)
	}
	return nil
}

// SystemError is the payload appended in place of an event that could not be
// persisted after retries were exhausted. The audit trail records the gap
// explicitly rather than dropping data silently.
type SystemError struct {
	Op       string `json:"op"`
	Message  string `json:"message"`
	Attempts int    `json:"attempts,omitempty"`
}

func (p *SystemError) Validate() error {
	if p.Op == "" {
		return Invalid("op", "must not be empty")
	}
	return nil
}
