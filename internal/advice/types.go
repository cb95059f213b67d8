// Package advice turns a finished evaluation into debrief guidance for the
// human reviewer: where the automated scores are trustworthy, where they
// need verification by hand, and what to probe with the candidate.
package advice

import (
	"github.com/blackwell-systems/assay/internal/evaluation"
)

// Priority levels for notes.
const (
	PriorityCritical = 1
	PriorityHigh     = 2
	PriorityMedium   = 3
	PriorityLow      = 4
)

// Note is one actionable item for the reviewer.
type Note struct {
	Category string  `json:"category"`
	Priority int     `json:"priority"`
	Title    string  `json:"title"`
	Detail   string  `json:"detail"`
	Impact   float64 `json:"impact"`
}

// ReviewContext provides everything rules need: the evaluation itself and
// the weights it was aggregated with, so a weak score in a heavy dimension
// outranks the same score in a light one.
type ReviewContext struct {
	Eval    *evaluation.Evaluation
	Weights evaluation.Weights
}

// Rule examines the review context and produces zero or more notes.
type Rule func(ctx *ReviewContext) []Note
