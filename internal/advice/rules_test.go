package advice

import (
	"strings"
	"testing"

	"github.com/blackwell-systems/assay/internal/analyzer"
	"github.com/blackwell-systems/assay/internal/evaluation"
)

func reviewCtx(dims ...analyzer.DimensionScore) *ReviewContext {
	return &ReviewContext{
		Eval:    &evaluation.Evaluation{Dimensions: dims},
		Weights: evaluation.DefaultWeights,
	}
}

func TestThinEvidence(t *testing.T) {
	ctx := reviewCtx(
		analyzer.DimensionScore{Dimension: analyzer.DimensionCodeQuality, Score: 50, Confidence: 0.1},
		analyzer.DimensionScore{Dimension: analyzer.DimensionCommunication, Score: 70, Confidence: 0.8},
	)

	notes := ThinEvidence(ctx)
	if len(notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(notes))
	}
	if !strings.Contains(notes[0].Title, "Code Quality") {
		t.Errorf("note should name the thin dimension, got %q", notes[0].Title)
	}
	if notes[0].Category != "coverage" {
		t.Errorf("category = %q, want coverage", notes[0].Category)
	}
}

func TestWeakDimension_IgnoresLowConfidence(t *testing.T) {
	ctx := reviewCtx(
		analyzer.DimensionScore{Dimension: analyzer.DimensionProblemSolving, Score: 30, Confidence: 0.8},
		analyzer.DimensionScore{Dimension: analyzer.DimensionCommunication, Score: 30, Confidence: 0.1},
	)

	notes := WeakDimension(ctx)
	if len(notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(notes))
	}
	if !strings.Contains(notes[0].Detail, "debugging path") {
		t.Errorf("expected the problem-solving probe, got %q", notes[0].Detail)
	}
}

func TestFailingTests(t *testing.T) {
	ctx := reviewCtx(analyzer.DimensionScore{
		Dimension:  analyzer.DimensionCodeQuality,
		Score:      45,
		Confidence: 0.9,
		Breakdown:  map[string]float64{"test_ratio": 30},
	})

	notes := FailingTests(ctx)
	if len(notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(notes))
	}
	if notes[0].Priority != PriorityCritical {
		t.Errorf("priority = %d, want critical", notes[0].Priority)
	}

	ctx.Eval.Dimensions[0].Breakdown["test_ratio"] = 90
	if got := FailingTests(ctx); got != nil {
		t.Errorf("passing suite should produce no note, got %v", got)
	}
}

func TestRelianceOutlier(t *testing.T) {
	heavy := reviewCtx(analyzer.DimensionScore{
		Dimension:  analyzer.DimensionAICollaboration,
		Confidence: 0.8,
		Breakdown:  map[string]float64{"dependency": 95},
	})
	if notes := RelianceOutlier(heavy); len(notes) != 1 || notes[0].Priority != PriorityMedium {
		t.Errorf("heavy reliance should produce a medium note, got %v", notes)
	}

	light := reviewCtx(analyzer.DimensionScore{
		Dimension:  analyzer.DimensionAICollaboration,
		Confidence: 0.8,
		Breakdown:  map[string]float64{"dependency": 10},
	})
	if notes := RelianceOutlier(light); len(notes) != 1 || notes[0].Priority != PriorityLow {
		t.Errorf("light reliance should produce a low note, got %v", notes)
	}

	moderate := reviewCtx(analyzer.DimensionScore{
		Dimension:  analyzer.DimensionAICollaboration,
		Confidence: 0.8,
		Breakdown:  map[string]float64{"dependency": 50},
	})
	if notes := RelianceOutlier(moderate); notes != nil {
		t.Errorf("moderate reliance should produce no note, got %v", notes)
	}
}

func TestStandout_PicksBest(t *testing.T) {
	ctx := reviewCtx(
		analyzer.DimensionScore{Dimension: analyzer.DimensionCodeQuality, Score: 88, Confidence: 0.9},
		analyzer.DimensionScore{Dimension: analyzer.DimensionProblemSolving, Score: 92, Confidence: 0.8},
		analyzer.DimensionScore{Dimension: analyzer.DimensionCommunication, Score: 95, Confidence: 0.2},
	)

	notes := Standout(ctx)
	if len(notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(notes))
	}
	if !strings.Contains(notes[0].Title, "Problem Solving") {
		t.Errorf("low-confidence 95 must lose to high-confidence 92, got %q", notes[0].Title)
	}
}

func TestEngine_RunRanksNotes(t *testing.T) {
	ctx := reviewCtx(
		analyzer.DimensionScore{
			Dimension:  analyzer.DimensionCodeQuality,
			Score:      40,
			Confidence: 0.9,
			Breakdown:  map[string]float64{"test_ratio": 20},
		},
		analyzer.DimensionScore{Dimension: analyzer.DimensionCommunication, Score: 50, Confidence: 0.1},
	)

	notes := NewEngine().Run(ctx)
	if len(notes) < 3 {
		t.Fatalf("expected at least 3 notes, got %d", len(notes))
	}
	for i := 1; i < len(notes); i++ {
		if notes[i].Impact > notes[i-1].Impact {
			t.Errorf("notes out of order at %d: %.2f > %.2f", i, notes[i].Impact, notes[i-1].Impact)
		}
	}
}

func TestComputeImpact(t *testing.T) {
	if got := ComputeImpact(60, 0.9, 0.35); got != 60*0.9*0.35 {
		t.Errorf("ComputeImpact = %v", got)
	}
	if got := ComputeImpact(-5, 0.9, 0.35); got != 0 {
		t.Errorf("negative gap should clamp to 0, got %v", got)
	}
}
