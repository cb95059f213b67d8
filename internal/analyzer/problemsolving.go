package analyzer

import (
	"fmt"
	"math"
)

// Problem-solving component weights: iteration shape 30%, test progression
// 30%, debugging-command density 40%. Weights renormalize over the
// components that actually have data.
const (
	psIterationWeight   = 0.30
	psProgressionWeight = 0.30
	psDebugWeight       = 0.40
)

// AnalyzeProblemSolving scores how the candidate worked: a bell-curve
// iteration score peaking at the configured optimum snapshot count, the
// fraction of consecutive test runs that made net progress, and the density
// of debugging-intent terminal commands.
func AnalyzeProblemSolving(in *SessionInputs, tn Tunables) DimensionScore {
	ds := DimensionScore{
		Dimension: DimensionProblemSolving,
		Breakdown: make(map[string]float64),
	}

	var weighted, weightSum float64
	components := 0

	if n := len(in.Snapshots); n > 0 {
		iterScore := iterationScore(n, tn)
		ds.Breakdown["iteration_shape"] = iterScore
		weighted += iterScore * psIterationWeight
		weightSum += psIterationWeight
		components++

		last := in.Snapshots[n-1]
		ds.Evidence = append(ds.Evidence, Evidence{
			Type:        EvidenceMetric,
			Description: fmt.Sprintf("%d code iterations (optimum %d)", n, tn.OptimumIterations),
			Importance:  ImportanceNormal,
			Timestamp:   last.Timestamp,
			EventID:     last.EventID,
			Value:       float64(n),
		})
	}

	if len(in.TestRuns) >= 2 {
		progScore, improved, pairs := progressionScore(in.TestRuns)
		ds.Breakdown["test_progression"] = progScore
		weighted += progScore * psProgressionWeight
		weightSum += psProgressionWeight
		components++

		last := in.TestRuns[len(in.TestRuns)-1]
		ds.Evidence = append(ds.Evidence, Evidence{
			Type:        EvidenceTestResult,
			Description: fmt.Sprintf("%d of %d consecutive test runs made net progress", improved, pairs),
			Importance:  ImportanceImportant,
			Timestamp:   last.Timestamp,
			EventID:     last.EventID,
			Value:       progScore,
		})
	}

	if len(in.Commands) > 0 {
		debugScore, debugCount := debugDensity(in.Commands)
		ds.Breakdown["debug_density"] = debugScore
		weighted += debugScore * psDebugWeight
		weightSum += psDebugWeight
		components++

		if debugCount > 0 {
			// Anchor the evidence on the first debugging command.
			for _, c := range in.Commands {
				if !isDebugCommand(c.Command) {
					continue
				}
				ds.Evidence = append(ds.Evidence, Evidence{
					Type:        EvidenceTerminalCommand,
					Description: fmt.Sprintf("%d of %d terminal commands show debugging intent", debugCount, len(in.Commands)),
					Importance:  ImportanceNormal,
					Timestamp:   c.Timestamp,
					EventID:     c.EventID,
					CodeSnippet: c.Command,
					Value:       debugScore,
				})
				break
			}
		}
	}

	if weightSum == 0 {
		ds.Score = 50
		ds.Confidence = 0.1
		return ds
	}
	ds.Score = clamp100(weighted / weightSum)
	ds.Confidence = coverageConfidence(components, 3)
	return ds
}

// iterationScore is a Gaussian bell curve peaking at the optimum snapshot
// count: symmetric falloff for both too-few and too-many iterations.
func iterationScore(n int, tn Tunables) float64 {
	sigma := tn.IterationSigma
	if sigma <= 0 {
		sigma = DefaultTunables.IterationSigma
	}
	diff := float64(n - tn.OptimumIterations)
	return 100 * math.Exp(-(diff*diff)/(2*sigma*sigma))
}

// progressionScore returns the percentage of consecutive run pairs with a
// net increase in passing tests, plus the raw counts.
func progressionScore(runs []TestRun) (score float64, improved, pairs int) {
	for i := 1; i < len(runs); i++ {
		pairs++
		if runs[i].Passed > runs[i-1].Passed {
			improved++
		}
	}
	if pairs == 0 {
		return 0, 0, 0
	}
	return 100 * float64(improved) / float64(pairs), improved, pairs
}

// debugDensity returns the debugging-intent command ratio as a 0-100 score.
func debugDensity(commands []Command) (float64, int) {
	count := 0
	for _, c := range commands {
		if isDebugCommand(c.Command) {
			count++
		}
	}
	return 100 * float64(count) / float64(len(commands)), count
}

// coverageConfidence maps how many of the expected signal sources had data
// onto a confidence value.
func coverageConfidence(present, expected int) float64 {
	switch {
	case present >= expected:
		return 0.9
	case present == expected-1:
		return 0.6
	case present > 0:
		return 0.3
	default:
		return 0.1
	}
}
