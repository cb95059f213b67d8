package advice

import (
	"fmt"

	"github.com/blackwell-systems/assay/internal/analyzer"
	"github.com/blackwell-systems/assay/internal/evaluation"
)

// ThinEvidence flags dimensions the analyzers could barely see. A low
// confidence is not a low score; the reviewer has to fill the gap by hand.
func ThinEvidence(ctx *ReviewContext) []Note {
	var notes []Note
	for _, d := range ctx.Eval.Dimensions {
		if d.Confidence > 0.3 {
			continue
		}
		notes = append(notes, Note{
			Category: "coverage",
			Priority: PriorityHigh,
			Title:    fmt.Sprintf("Verify %s in the debrief", evaluation.Label(d.Dimension)),
			Detail: fmt.Sprintf(
				"The %s score of %.0f carries only %.0f%% confidence: the session "+
					"produced too little signal to score it automatically. Treat the "+
					"number as a placeholder and probe this area directly.",
				evaluation.Label(d.Dimension), d.Score, d.Confidence*100,
			),
			// The true gap is unknowable here, so score it as a coin flip.
			Impact: ComputeImpact(50, 1-d.Confidence, ctx.Weights.Of(d.Dimension)),
		})
	}
	return notes
}

// weakDimensionProbes maps each dimension to the debrief question that
// best separates a real weakness from an artifact of the session format.
var weakDimensionProbes = map[analyzer.Dimension]string{
	analyzer.DimensionCodeQuality:     "Walk through the final code together and ask what they would clean up with another hour.",
	analyzer.DimensionProblemSolving:  "Ask them to reconstruct their debugging path: what they tried, what ruled each hypothesis out.",
	analyzer.DimensionAICollaboration: "Ask how they decided what to delegate to the assistant versus do themselves.",
	analyzer.DimensionCommunication:   "Ask them to explain one design decision from the session as if to a new teammate.",
}

// WeakDimension flags confidently-low scores and suggests the probe.
func WeakDimension(ctx *ReviewContext) []Note {
	var notes []Note
	for _, d := range ctx.Eval.Dimensions {
		if d.Score >= 50 || d.Confidence <= 0.3 {
			continue
		}
		notes = append(notes, Note{
			Category: "risk",
			Priority: PriorityHigh,
			Title:    fmt.Sprintf("Weak %s signal", evaluation.Label(d.Dimension)),
			Detail: fmt.Sprintf(
				"%s scored %.0f/100 with solid evidence behind it. %s",
				evaluation.Label(d.Dimension), d.Score, weakDimensionProbes[d.Dimension],
			),
			Impact: ComputeImpact(100-d.Score, d.Confidence, ctx.Weights.Of(d.Dimension)),
		})
	}
	return notes
}

// FailingTests flags a session that ended with a poor test ratio.
func FailingTests(ctx *ReviewContext) []Note {
	d := ctx.Eval.Dimension(analyzer.DimensionCodeQuality)
	if d == nil {
		return nil
	}
	ratio, ok := d.Breakdown["test_ratio"]
	if !ok || ratio >= 60 {
		return nil
	}
	return []Note{{
		Category: "risk",
		Priority: PriorityCritical,
		Title:    "Session ended with failing tests",
		Detail: fmt.Sprintf(
			"The final test run scored %.0f/100. Replay the last test events and "+
				"check whether the candidate knew the suite was red, and whether they "+
				"were out of time or out of ideas.",
			ratio,
		),
		Impact: ComputeImpact(100-ratio, d.Confidence, ctx.Weights.Of(analyzer.DimensionCodeQuality)),
	}}
}

// VaguePrompts flags consistently terse prompting.
func VaguePrompts(ctx *ReviewContext) []Note {
	d := ctx.Eval.Dimension(analyzer.DimensionAICollaboration)
	if d == nil {
		return nil
	}
	spec, ok := d.Breakdown["specificity"]
	if !ok || spec >= 55 || d.Confidence <= 0.3 {
		return nil
	}
	return []Note{{
		Category: "signal",
		Priority: PriorityMedium,
		Title:    "Prompts were consistently vague",
		Detail: fmt.Sprintf(
			"Average prompt specificity was %.0f/100: mostly one-liners without "+
				"context. Ask how they would brief a colleague on the same task and "+
				"compare it with what they gave the assistant.",
			spec,
		),
		Impact: ComputeImpact(100-spec, d.Confidence, ctx.Weights.Of(analyzer.DimensionAICollaboration)),
	}}
}

// RelianceOutlier flags sessions at either end of the AI-reliance scale.
// Both extremes deserve a conversation; neither is disqualifying.
func RelianceOutlier(ctx *ReviewContext) []Note {
	d := ctx.Eval.Dimension(analyzer.DimensionAICollaboration)
	if d == nil || d.Confidence <= 0.3 {
		return nil
	}
	dep, ok := d.Breakdown["dependency"]
	if !ok {
		return nil
	}

	switch {
	case dep > 80:
		return []Note{{
			Category: "signal",
			Priority: PriorityMedium,
			Title:    "Nearly everything went through the assistant",
			Detail: fmt.Sprintf(
				"AI reliance sat at %.0f/100 with little independent editing or "+
					"terminal work. Probe whether they can operate without the "+
					"assistant: ask them to modify the solution live.",
				dep,
			),
			Impact: ComputeImpact(dep-50, d.Confidence, ctx.Weights.Of(analyzer.DimensionAICollaboration)),
		}}
	case dep < 20:
		return []Note{{
			Category: "signal",
			Priority: PriorityLow,
			Title:    "The assistant was barely used",
			Detail: fmt.Sprintf(
				"AI reliance sat at %.0f/100. If the role expects heavy assistant "+
					"use, ask whether that was a deliberate choice or unfamiliarity.",
				dep,
			),
			Impact: ComputeImpact(50-dep, d.Confidence, ctx.Weights.Of(analyzer.DimensionAICollaboration)),
		}}
	}
	return nil
}

// SilentWorker flags candidates who wrote code without explaining any of it.
func SilentWorker(ctx *ReviewContext) []Note {
	d := ctx.Eval.Dimension(analyzer.DimensionCommunication)
	if d == nil || d.Confidence <= 0.3 {
		return nil
	}
	expl, ok := d.Breakdown["explanation"]
	if !ok || expl >= 50 {
		return nil
	}
	return []Note{{
		Category: "signal",
		Priority: PriorityMedium,
		Title:    "Little explanation during the session",
		Detail: fmt.Sprintf(
			"Explanation quality scored %.0f/100: the candidate rarely said why "+
				"they were doing something. Have them narrate one change from the "+
				"replay and judge the live explanation instead.",
			expl,
		),
		Impact: ComputeImpact(100-expl, d.Confidence, ctx.Weights.Of(analyzer.DimensionCommunication)),
	}}
}

// Standout surfaces a genuinely strong dimension so the debrief is not
// only about weaknesses.
func Standout(ctx *ReviewContext) []Note {
	var best *analyzer.DimensionScore
	for i := range ctx.Eval.Dimensions {
		d := &ctx.Eval.Dimensions[i]
		if d.Score >= 85 && d.Confidence >= 0.7 && (best == nil || d.Score > best.Score) {
			best = d
		}
	}
	if best == nil {
		return nil
	}
	return []Note{{
		Category: "strength",
		Priority: PriorityLow,
		Title:    fmt.Sprintf("Standout: %s", evaluation.Label(best.Dimension)),
		Detail: fmt.Sprintf(
			"%s scored %.0f/100 on strong evidence. Worth naming in the debrief "+
				"and in the hiring packet.",
			evaluation.Label(best.Dimension), best.Score,
		),
		Impact: ComputeImpact(best.Score-50, best.Confidence, ctx.Weights.Of(best.Dimension)),
	}}
}
