// Package evaluation combines the four dimension scores into an overall
// evaluation, resolves every evidence item back to the log entry it came
// from, and renders the cached report. Evaluations regenerate
// deterministically: an unchanged log and unchanged analyzers yield
// identical scores, evidence, and markers.
package evaluation

import (
	"time"

	"github.com/blackwell-systems/assay/internal/analyzer"
)

// Marker is the sole structural link between a scored judgment and the raw
// log: which evidence item, which event, and where on the timeline.
type Marker struct {
	Dimension     analyzer.Dimension `json:"dimension"`
	EvidenceIndex int                `json:"evidence_index"`
	EventID       string             `json:"event_id"`
	Sequence      int64              `json:"sequence"`
	Importance    string             `json:"importance"`

	// Position is Sequence/TotalEvents, for the scrubbable timeline.
	// Selecting a marker in the UI is a seek() to Sequence.
	Position float64 `json:"position"`
}

// Evaluation is the full result for one completed session. Dimensions is
// ordered: code quality, problem solving, AI collaboration, communication.
type Evaluation struct {
	ID           string                    `json:"id"`
	SessionID    string                    `json:"session_id"`
	GeneratedAt  time.Time                 `json:"generated_at"`
	Dimensions   []analyzer.DimensionScore `json:"dimensions"`
	OverallScore float64                   `json:"overall_score"`
	Markers      []Marker                  `json:"markers"`
	Report       string                    `json:"report"`
}

// Dimension returns the score for a dimension, or nil.
func (e *Evaluation) Dimension(d analyzer.Dimension) *analyzer.DimensionScore {
	for i := range e.Dimensions {
		if e.Dimensions[i].Dimension == d {
			return &e.Dimensions[i]
		}
	}
	return nil
}

// Degraded reports whether every dimension ran on insufficient input. A
// fully degraded evaluation is still emitted: partial signal beats none for
// a time-boxed assessment.
func (e *Evaluation) Degraded() bool {
	for _, d := range e.Dimensions {
		if d.Confidence > 0.3 {
			return false
		}
	}
	return len(e.Dimensions) > 0
}
