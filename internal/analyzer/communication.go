package analyzer

import (
	"fmt"
	"strings"
)

// Communication component weights.
const (
	cmExplanationWeight = 0.40
	cmQuestionWeight    = 0.30
	cmNarrationWeight   = 0.30
)

// AnalyzeCommunication scores the candidate's written communication from
// transcript signals: whether they explain context, ask questions when
// blocked, and narrate their reasoning as they go.
func AnalyzeCommunication(in *SessionInputs, _ Tunables) DimensionScore {
	ds := DimensionScore{
		Dimension: DimensionCommunication,
		Breakdown: make(map[string]float64),
	}

	turns := in.UserTurns()
	if len(turns) == 0 {
		ds.Score = 50
		ds.Confidence = 0.1
		return ds
	}

	var explained, questions, narrated int
	var bestNarration *ChatTurn
	for i := range turns {
		t := &turns[i]
		if len(t.Content) >= 80 {
			explained++
		}
		if strings.Contains(t.Content, "?") {
			questions++
		}
		if narrationPattern.MatchString(t.Content) {
			narrated++
			if bestNarration == nil {
				bestNarration = t
			}
		}
	}
	n := float64(len(turns))

	explanation := 100 * float64(explained) / n
	question := 100 * float64(questions) / n
	narration := 100 * float64(narrated) / n

	ds.Breakdown["explanation"] = explanation
	ds.Breakdown["question_asking"] = question
	ds.Breakdown["narration"] = narration

	ds.Score = clamp100(
		cmExplanationWeight*explanation +
			cmQuestionWeight*question +
			cmNarrationWeight*narration,
	)
	ds.Confidence = communicationConfidence(len(turns))

	ds.Evidence = append(ds.Evidence, Evidence{
		Type:        EvidenceMetric,
		Description: fmt.Sprintf("%d of %d messages carry substantive explanation", explained, len(turns)),
		Importance:  ImportanceNormal,
		Value:       explanation,
	})
	if bestNarration != nil {
		ds.Evidence = append(ds.Evidence, Evidence{
			Type:        EvidenceAIInteraction,
			Description: "Candidate narrates their reasoning",
			Importance:  ImportanceImportant,
			Timestamp:   bestNarration.Timestamp,
			EventID:     bestNarration.EventID,
			CodeSnippet: truncate(bestNarration.Content, 160),
		})
	}

	return ds
}

// communicationConfidence scales with transcript volume.
func communicationConfidence(turns int) float64 {
	switch {
	case turns >= 5:
		return 0.8
	case turns >= 2:
		return 0.5
	default:
		return 0.3
	}
}
