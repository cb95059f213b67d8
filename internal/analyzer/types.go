// Package analyzer provides the four dimension analyzers: code quality,
// problem solving, AI collaboration, and communication. Every analyzer is a
// pure function over a reconstructed view of the session log — identical
// inputs always produce identical DimensionScores, which is what makes
// evaluation regeneration reproducible.
package analyzer

import "time"

// Dimension names one of the four scored aspects of performance.
type Dimension string

const (
	DimensionCodeQuality     Dimension = "codeQuality"
	DimensionProblemSolving  Dimension = "problemSolving"
	DimensionAICollaboration Dimension = "aiCollaboration"
	DimensionCommunication   Dimension = "communication"
)

// Evidence types.
const (
	EvidenceCodeSnippet     = "code_snippet"
	EvidenceTestResult      = "test_result"
	EvidenceAIInteraction   = "ai_interaction"
	EvidenceTerminalCommand = "terminal_command"
	EvidenceMetric          = "metric"
)

// Evidence importance levels.
const (
	ImportanceCritical  = "critical"
	ImportanceImportant = "important"
	ImportanceNormal    = "normal"
)

// Evidence is one extracted signal supporting a dimension score. Timestamp
// and EventID, when present, let the aggregator resolve a backlink into the
// raw log; evidence without either still appears in the evaluation but
// produces no marker.
type Evidence struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Importance  string    `json:"importance"`
	FilePath    string    `json:"file_path,omitempty"`
	LineNumber  int       `json:"line_number,omitempty"`
	Timestamp   time.Time `json:"timestamp,omitzero"`
	EventID     string    `json:"event_id,omitempty"`
	CodeSnippet string    `json:"code_snippet,omitempty"`
	Value       float64   `json:"value,omitempty"`
}

// DimensionScore is the common analyzer output: a score in [0,100], a
// confidence in [0,1], itemized evidence, and a named component breakdown.
// Missing input never fails an analysis; it lowers the confidence instead.
type DimensionScore struct {
	Dimension  Dimension          `json:"dimension"`
	Score      float64            `json:"score"`
	Confidence float64            `json:"confidence"`
	Evidence   []Evidence         `json:"evidence"`
	Breakdown  map[string]float64 `json:"breakdown"`
}

// ChatTurn is one reconstructed chat message.
type ChatTurn struct {
	Role         string    `json:"role"`
	Content      string    `json:"content"`
	TokensIn     int       `json:"tokens_in,omitempty"`
	TokensOut    int       `json:"tokens_out,omitempty"`
	ToolsInvoked []string  `json:"tools_invoked,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	EventID      string    `json:"event_id"`
	Sequence     int64     `json:"sequence"`
}

// Snapshot is one reconstructed code snapshot.
type Snapshot struct {
	Path      string    `json:"path"`
	Content   string    `json:"content"`
	Language  string    `json:"language,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	EventID   string    `json:"event_id"`
	Sequence  int64     `json:"sequence"`
}

// TestRun is one reconstructed test run.
type TestRun struct {
	Passed    int       `json:"passed"`
	Failed    int       `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
	EventID   string    `json:"event_id"`
	Sequence  int64     `json:"sequence"`
}

// Total returns the number of test cases in the run.
func (r TestRun) Total() int { return r.Passed + r.Failed }

// Command is one reconstructed terminal command.
type Command struct {
	Command   string    `json:"command"`
	Timestamp time.Time `json:"timestamp"`
	EventID   string    `json:"event_id"`
	Sequence  int64     `json:"sequence"`
}

// QuestionResult is one recorded question outcome.
type QuestionResult struct {
	QuestionID string    `json:"question_id"`
	Score      float64   `json:"score"`
	Skipped    bool      `json:"skipped"`
	Timestamp  time.Time `json:"timestamp"`
	EventID    string    `json:"event_id"`
}

// SessionInputs is the immutable, already-assembled view of a session's log
// that analyzers consume. The replay service builds it; analyzers never
// touch storage, so the four of them can run in parallel with no shared
// mutable state.
type SessionInputs struct {
	SessionID  string           `json:"session_id"`
	Transcript []ChatTurn       `json:"transcript"`
	Snapshots  []Snapshot       `json:"snapshots"`
	TestRuns   []TestRun        `json:"test_runs"`
	Commands   []Command        `json:"commands"`
	Questions  []QuestionResult `json:"questions"`
}

// UserTurns returns the candidate's messages in order.
func (in *SessionInputs) UserTurns() []ChatTurn {
	var turns []ChatTurn
	for _, t := range in.Transcript {
		if t.Role == "user" {
			turns = append(turns, t)
		}
	}
	return turns
}

// AssistantTurns returns the AI assistant's messages in order.
func (in *SessionInputs) AssistantTurns() []ChatTurn {
	var turns []ChatTurn
	for _, t := range in.Transcript {
		if t.Role == "assistant" {
			turns = append(turns, t)
		}
	}
	return turns
}

// FinalSnapshot returns the last code snapshot, or nil.
func (in *SessionInputs) FinalSnapshot() *Snapshot {
	if len(in.Snapshots) == 0 {
		return nil
	}
	return &in.Snapshots[len(in.Snapshots)-1]
}

// LatestTestRun returns the last test run, or nil.
func (in *SessionInputs) LatestTestRun() *TestRun {
	if len(in.TestRuns) == 0 {
		return nil
	}
	return &in.TestRuns[len(in.TestRuns)-1]
}

// clamp100 bounds a score to [0,100].
func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
