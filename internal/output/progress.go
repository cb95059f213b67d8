package output

import (
	"fmt"
	"strings"
)

// ScoreBar renders a visual bar for a 0-100 score.
// Example: "████████░░ 80/100"
func ScoreBar(score float64, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := int((score / 100.0) * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	var style func(string) string
	switch {
	case score >= 70:
		style = func(s string) string { return StyleSuccess.Render(s) }
	case score >= 40:
		style = func(s string) string { return StyleWarning.Render(s) }
	default:
		style = func(s string) string { return StyleError.Render(s) }
	}

	return fmt.Sprintf("%s %s", style(bar), StyleMuted.Render(fmt.Sprintf("%.0f/100", score)))
}

// ConfidenceTag renders a 0-1 confidence as a styled label. Low confidence
// is a warning, not an error: degraded evaluations still render.
func ConfidenceTag(confidence float64) string {
	label := fmt.Sprintf("confidence %.2f", confidence)
	switch {
	case confidence >= 0.7:
		return StyleSuccess.Render(label)
	case confidence > 0.3:
		return StyleWarning.Render(label)
	default:
		return StyleError.Render(label)
	}
}

// PassFail renders a test-run summary, colored by outcome.
func PassFail(passed, failed int) string {
	summary := fmt.Sprintf("%d passed, %d failed", passed, failed)
	if failed == 0 && passed > 0 {
		return StyleSuccess.Render(summary)
	}
	if failed > 0 {
		return StyleError.Render(summary)
	}
	return StyleMuted.Render(summary)
}

// TimelinePosition renders a marker's position as a percentage through the
// session.
func TimelinePosition(position float64) string {
	return StyleMuted.Render(fmt.Sprintf("%3.0f%%", position*100))
}

// Section prints a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}
