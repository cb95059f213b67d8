package analyzer

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestAnalyzeAICollaboration_NoPrompts(t *testing.T) {
	in := &SessionInputs{
		Snapshots: []Snapshot{{Path: "a.js", Content: "x"}},
	}
	ds := AnalyzeAICollaboration(in, DefaultTunables)
	if ds.Score != 50 || ds.Confidence != 0.1 {
		t.Errorf("no-prompt result = %v/%v, want neutral 50/0.1", ds.Score, ds.Confidence)
	}
	if len(ds.Evidence) != 0 {
		t.Errorf("expected no evidence without prompts, got %d items", len(ds.Evidence))
	}
}

func TestSpecificityScore_Tiers(t *testing.T) {
	tests := []struct {
		length int
		want   float64
	}{
		{10, 30},
		{40, 55},
		{100, 75},
		{300, 90},
		{500, 70}, // wall of text
	}
	for _, tc := range tests {
		content := strings.Repeat("a", tc.length)
		if got := specificityScore(content); got != tc.want {
			t.Errorf("length %d: score = %v, want %v", tc.length, got, tc.want)
		}
	}
}

func TestClarityScore(t *testing.T) {
	base := clarityScore("implement the cache")
	if base != 50 {
		t.Errorf("plain statement = %v, want 50", base)
	}
	withQ := clarityScore("how should the cache evict entries?")
	if withQ != 70 {
		t.Errorf("question = %v, want 70", withQ)
	}
	structured := clarityScore("requirements:\n1. evict LRU\n2. cap size\nany concerns?")
	if structured != 100 {
		t.Errorf("structured multiline question = %v, want 100 (capped)", structured)
	}
}

func TestDependencyScore_ModerateUseScoresBest(t *testing.T) {
	turn := func(role string) ChatTurn { return ChatTurn{Role: role, Content: "text"} }

	balanced := &SessionInputs{
		Transcript: []ChatTurn{turn("user"), turn("assistant")},
		Snapshots:  []Snapshot{{}, {}},
	}
	if got := dependencyScore(balanced); got != 50 {
		t.Errorf("balanced reliance = %v, want 50", got)
	}

	allAI := &SessionInputs{
		Transcript: []ChatTurn{turn("user"), turn("assistant"), turn("user"), turn("assistant")},
	}
	if got := dependencyScore(allAI); got != 100 {
		t.Errorf("all-AI reliance = %v, want 100", got)
	}

	// Usage effectiveness peaks at moderate reliance.
	dsBalanced := AnalyzeAICollaboration(balanced, DefaultTunables)
	dsAllAI := AnalyzeAICollaboration(allAI, DefaultTunables)
	if dsBalanced.Breakdown["usage_effectiveness"] <= dsAllAI.Breakdown["usage_effectiveness"] {
		t.Errorf("moderate use (%v) should beat total reliance (%v)",
			dsBalanced.Breakdown["usage_effectiveness"], dsAllAI.Breakdown["usage_effectiveness"])
	}
}

func TestCollaborationConfidence_Tiers(t *testing.T) {
	tests := []struct {
		prompts int
		want    float64
	}{
		{7, 0.8},
		{5, 0.8},
		{3, 0.5},
		{2, 0.5},
		{1, 0.3},
	}
	for _, tc := range tests {
		if got := collaborationConfidence(tc.prompts); got != tc.want {
			t.Errorf("%d prompts: confidence = %v, want %v", tc.prompts, got, tc.want)
		}
	}
}

func TestAnalyzeAICollaboration_EvidenceLinksBestPrompt(t *testing.T) {
	weak := ChatTurn{Role: "user", Content: "fix it", EventID: "weak"}
	strong := ChatTurn{
		Role:    "user",
		Content: "The cache test fails with a nil pointer in evict().\n```\nfunc evict() {...}\n```\nShould the method lock before reading the index?",
		EventID: "strong",
	}
	in := &SessionInputs{Transcript: []ChatTurn{weak, strong}}
	ds := AnalyzeAICollaboration(in, DefaultTunables)

	if len(ds.Evidence) == 0 {
		t.Fatal("expected evidence")
	}
	if ds.Evidence[0].EventID != "strong" {
		t.Errorf("best-prompt evidence links %q, want the stronger prompt", ds.Evidence[0].EventID)
	}
}

func TestTruncate_CutsOnRuneBoundary(t *testing.T) {
	multibyte := strings.Repeat("é", 40) // two bytes per rune
	got := truncate(multibyte, 13)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated snippet is not valid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
	if want := strings.Repeat("é", 6) + "…"; got != want {
		t.Errorf("truncate = %q, want %q", got, want)
	}

	if got := truncate("short", 80); got != "short" {
		t.Errorf("short strings pass through, got %q", got)
	}
}
