package advice

import "sort"

// Engine runs registered rules against a review context and collects the
// resulting notes.
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine with every built-in rule registered.
func NewEngine() *Engine {
	return &Engine{
		rules: []Rule{
			ThinEvidence,
			WeakDimension,
			FailingTests,
			VaguePrompts,
			RelianceOutlier,
			SilentWorker,
			Standout,
		},
	}
}

// Run executes all rules and returns the notes ranked for the reviewer.
func (e *Engine) Run(ctx *ReviewContext) []Note {
	var all []Note
	for _, rule := range e.rules {
		all = append(all, rule(ctx)...)
	}
	return Rank(all)
}

// Rank orders notes by impact descending, breaking ties by priority so a
// critical note never trails an informational one with the same impact.
func Rank(notes []Note) []Note {
	sorted := make([]Note, len(notes))
	copy(sorted, notes)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Impact != sorted[j].Impact {
			return sorted[i].Impact > sorted[j].Impact
		}
		return sorted[i].Priority < sorted[j].Priority
	})
	return sorted
}

// ComputeImpact scores a note by how far off target the signal is, how
// much the evidence can be trusted, and how heavily the dimension counts
// toward the overall score.
func ComputeImpact(gap, confidence, weight float64) float64 {
	if gap < 0 {
		gap = 0
	}
	return gap * confidence * weight
}
