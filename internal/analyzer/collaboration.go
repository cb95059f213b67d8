package analyzer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// AI-collaboration combination: prompt quality 70%, usage effectiveness 30%.
const (
	acPromptWeight = 0.70
	acUsageWeight  = 0.30
)

// AnalyzeAICollaboration scores how well the candidate worked with the AI
// assistant: the quality of their prompts and whether their reliance on the
// assistant sat at a productive level.
func AnalyzeAICollaboration(in *SessionInputs, tn Tunables) DimensionScore {
	ds := DimensionScore{
		Dimension: DimensionAICollaboration,
		Breakdown: make(map[string]float64),
	}

	prompts := in.UserTurns()
	if len(prompts) == 0 {
		// A candidate who never used the assistant: neutral score, low
		// confidence, no evidence to link.
		ds.Score = 50
		ds.Confidence = 0.1
		return ds
	}

	var specSum, claritySum, depthSum float64
	var best ChatTurn
	bestQuality := -1.0
	for _, p := range prompts {
		spec := specificityScore(p.Content)
		clar := clarityScore(p.Content)
		depth := technicalDepthScore(p.Content)
		specSum += spec
		claritySum += clar
		depthSum += depth

		if q := (spec + clar + depth) / 3; q > bestQuality {
			bestQuality = q
			best = p
		}
	}
	n := float64(len(prompts))
	specificity := specSum / n
	clarity := claritySum / n
	depth := depthSum / n
	promptQuality := (specificity + clarity + depth) / 3

	ds.Breakdown["specificity"] = specificity
	ds.Breakdown["clarity"] = clarity
	ds.Breakdown["technical_depth"] = depth
	ds.Breakdown["prompt_quality"] = promptQuality

	dependency := dependencyScore(in)
	usage := 100 - absFloat(50-dependency)
	ds.Breakdown["dependency"] = dependency
	ds.Breakdown["usage_effectiveness"] = usage

	ds.Score = clamp100(acPromptWeight*promptQuality + acUsageWeight*usage)
	ds.Confidence = collaborationConfidence(len(prompts))

	ds.Evidence = append(ds.Evidence, Evidence{
		Type:        EvidenceAIInteraction,
		Description: fmt.Sprintf("Strongest prompt scored %.0f/100 for quality", bestQuality),
		Importance:  ImportanceImportant,
		Timestamp:   best.Timestamp,
		EventID:     best.EventID,
		CodeSnippet: truncate(best.Content, 160),
		Value:       bestQuality,
	})
	ds.Evidence = append(ds.Evidence, Evidence{
		Type:        EvidenceMetric,
		Description: fmt.Sprintf("AI reliance %.0f/100; effectiveness peaks at moderate use", dependency),
		Importance:  ImportanceNormal,
		Value:       dependency,
	})

	return ds
}

// specificityScore tiers a prompt by length: one-liners rarely carry enough
// context, very long prompts usually bury the question.
func specificityScore(content string) float64 {
	switch n := len(content); {
	case n < 20:
		return 30
	case n < 60:
		return 55
	case n < 150:
		return 75
	case n < 400:
		return 90
	default:
		return 70
	}
}

// clarityScore rewards explicit questions and structured formatting.
func clarityScore(content string) float64 {
	score := 50.0
	if strings.Contains(content, "?") {
		score += 20
	}
	if structureMarkerPattern.MatchString(content) {
		score += 20
	}
	if strings.Count(content, "\n") >= 2 {
		score += 10
	}
	return clamp100(score)
}

// technicalDepthScore rewards code fences and technical vocabulary density.
func technicalDepthScore(content string) float64 {
	score := 40.0
	if codeFencePattern.MatchString(content) {
		score += 30
	}
	words := len(strings.Fields(content))
	if words == 0 {
		return 0
	}
	terms := len(technicalTermPattern.FindAllString(content, -1))
	density := float64(terms) / float64(words)
	score += clamp100(density*300) * 0.3
	return clamp100(score)
}

// dependencyScore measures AI reliance on a 0-100 scale: the share of the
// session's activity that flowed through the assistant, against independent
// work signals (snapshots and terminal commands).
func dependencyScore(in *SessionInputs) float64 {
	ai := float64(len(in.UserTurns()) + len(in.AssistantTurns()))
	solo := float64(len(in.Snapshots) + len(in.Commands))
	if ai+solo == 0 {
		return 0
	}
	return 100 * ai / (ai + solo)
}

// collaborationConfidence scales with how much transcript there is to read.
func collaborationConfidence(prompts int) float64 {
	switch {
	case prompts >= 5:
		return 0.8
	case prompts >= 2:
		return 0.5
	default:
		return 0.3
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Back up to a rune boundary so the cut never splits a multi-byte rune.
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
