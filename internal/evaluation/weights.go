package evaluation

import "github.com/blackwell-systems/assay/internal/analyzer"

// Weights is the named policy for combining dimension scores into the
// overall score. It is configuration, not something buried per call site;
// overrides are normalized so they always sum to one.
type Weights struct {
	CodeQuality     float64 `mapstructure:"code_quality"`
	ProblemSolving  float64 `mapstructure:"problem_solving"`
	AICollaboration float64 `mapstructure:"ai_collaboration"`
	Communication   float64 `mapstructure:"communication"`
}

// DefaultWeights is the stock policy.
var DefaultWeights = Weights{
	CodeQuality:     0.35,
	ProblemSolving:  0.25,
	AICollaboration: 0.25,
	Communication:   0.15,
}

// Of returns the weight for a dimension.
func (w Weights) Of(d analyzer.Dimension) float64 {
	switch d {
	case analyzer.DimensionCodeQuality:
		return w.CodeQuality
	case analyzer.DimensionProblemSolving:
		return w.ProblemSolving
	case analyzer.DimensionAICollaboration:
		return w.AICollaboration
	case analyzer.DimensionCommunication:
		return w.Communication
	}
	return 0
}

// sum returns the total weight mass.
func (w Weights) sum() float64 {
	return w.CodeQuality + w.ProblemSolving + w.AICollaboration + w.Communication
}

// Aggregate computes the weighted overall score across the dimension
// scores. Zero-mass weights fall back to the defaults rather than dividing
// by zero.
func Aggregate(scores []analyzer.DimensionScore, w Weights) float64 {
	total := w.sum()
	if total <= 0 {
		w = DefaultWeights
		total = w.sum()
	}

	var weighted float64
	for _, s := range scores {
		weighted += s.Score * w.Of(s.Dimension)
	}
	return weighted / total
}
