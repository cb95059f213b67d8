package analyzer

import (
	"fmt"
	"math"
	"strings"
)

// AnalyzeCodeQuality scores the final state of the candidate's code by
// combining two independent methods: the latest test run's pass ratio and
// static heuristics over the final snapshot. Agreement between the methods
// drives the confidence.
func AnalyzeCodeQuality(in *SessionInputs, tn Tunables) DimensionScore {
	ds := DimensionScore{
		Dimension: DimensionCodeQuality,
		Breakdown: make(map[string]float64),
	}

	var testScore, staticScore float64
	var hasTest, hasStatic bool

	if run := in.LatestTestRun(); run != nil && run.Total() > 0 {
		hasTest = true
		testScore = 100 * float64(run.Passed) / float64(run.Total())
		ds.Breakdown["test_ratio"] = testScore
		ds.Evidence = append(ds.Evidence, Evidence{
			Type:        EvidenceTestResult,
			Description: fmt.Sprintf("Latest test run: %d/%d passing", run.Passed, run.Total()),
			Importance:  ImportanceCritical,
			Timestamp:   run.Timestamp,
			EventID:     run.EventID,
			Value:       testScore,
		})
	}

	if snap := in.FinalSnapshot(); snap != nil && snap.Content != "" {
		hasStatic = true
		var staticEvidence []Evidence
		staticScore, staticEvidence = staticHeuristics(snap, tn)
		ds.Breakdown["static_heuristics"] = staticScore
		ds.Evidence = append(ds.Evidence, staticEvidence...)
	}

	switch {
	case hasTest && hasStatic:
		ds.Score = clamp100((testScore + staticScore) / 2)
	case hasTest:
		ds.Score = clamp100(testScore)
	case hasStatic:
		ds.Score = clamp100(staticScore)
	default:
		// No signal at all: neutral score, near-zero confidence.
		ds.Score = 50
	}
	ds.Confidence = codeQualityConfidence(testScore, staticScore, hasTest, hasStatic)

	return ds
}

// codeQualityConfidence is the agreement policy: two methods within 20
// points of each other mean 0.9, a larger disagreement 0.6, a single
// method 0.3, and no data a 0.1 floor.
func codeQualityConfidence(testScore, staticScore float64, hasTest, hasStatic bool) float64 {
	switch {
	case hasTest && hasStatic:
		if math.Abs(testScore-staticScore) <= 20 {
			return 0.9
		}
		return 0.6
	case hasTest || hasStatic:
		return 0.3
	default:
		return 0.1
	}
}

// staticHeuristics scores a snapshot's content: comment-density sweet spot,
// control-flow density, and pattern-matched anti-patterns.
func staticHeuristics(snap *Snapshot, tn Tunables) (float64, []Evidence) {
	lines := strings.Split(snap.Content, "\n")
	total := 0
	comments := 0
	conditionals := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		total++
		if commentPattern.MatchString(line) {
			comments++
		}
		conditionals += len(conditionalPattern.FindAllString(line, -1))
	}
	if total == 0 {
		return 50, nil
	}

	score := 85.0
	var evidence []Evidence

	// Comment density: reward the sweet spot, penalize silence or noise.
	density := float64(comments) / float64(total)
	switch {
	case density >= tn.CommentDensityLow && density <= tn.CommentDensityHigh:
		score += 10
		evidence = append(evidence, Evidence{
			Type:        EvidenceMetric,
			Description: fmt.Sprintf("Comment density %.0f%% is in the readable range", density*100),
			Importance:  ImportanceNormal,
			FilePath:    snap.Path,
			Timestamp:   snap.Timestamp,
			EventID:     snap.EventID,
			Value:       density * 100,
		})
	case density < tn.CommentDensityLow:
		score -= 10
		evidence = append(evidence, Evidence{
			Type:        EvidenceMetric,
			Description: fmt.Sprintf("Comment density %.0f%% is low for code of this size", density*100),
			Importance:  ImportanceNormal,
			FilePath:    snap.Path,
			Timestamp:   snap.Timestamp,
			EventID:     snap.EventID,
			Value:       density * 100,
		})
	default:
		score -= 5
	}

	// Control-flow density: heavily branched code reads worse.
	condDensity := float64(conditionals) / float64(total)
	if condDensity > 0.25 {
		score -= 10
		evidence = append(evidence, Evidence{
			Type:        EvidenceMetric,
			Description: fmt.Sprintf("High conditional/loop density (%.2f per line)", condDensity),
			Importance:  ImportanceImportant,
			FilePath:    snap.Path,
			Timestamp:   snap.Timestamp,
			EventID:     snap.EventID,
			Value:       condDensity,
		})
	}

	// Anti-patterns.
	for _, ap := range antiPatterns {
		loc := ap.Pattern.FindStringIndex(snap.Content)
		if loc == nil {
			continue
		}
		score -= ap.Penalty
		lineNo := 1 + strings.Count(snap.Content[:loc[0]], "\n")
		evidence = append(evidence, Evidence{
			Type:        EvidenceCodeSnippet,
			Description: fmt.Sprintf("Anti-pattern: %s", ap.Name),
			Importance:  ap.Importance,
			FilePath:    snap.Path,
			LineNumber:  lineNo,
			Timestamp:   snap.Timestamp,
			EventID:     snap.EventID,
			CodeSnippet: snippetAround(lines, lineNo),
		})
	}

	return clamp100(score), evidence
}

// snippetAround extracts the flagged line for evidence display.
func snippetAround(lines []string, lineNo int) string {
	idx := lineNo - 1
	if idx < 0 || idx >= len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[idx])
}
