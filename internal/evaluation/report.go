package evaluation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blackwell-systems/assay/internal/analyzer"
)

// dimensionLabels are the human names used in the rendered report.
var dimensionLabels = map[analyzer.Dimension]string{
	analyzer.DimensionCodeQuality:     "Code Quality",
	analyzer.DimensionProblemSolving:  "Problem Solving",
	analyzer.DimensionAICollaboration: "AI Collaboration",
	analyzer.DimensionCommunication:   "Communication",
}

// Label returns the human name of a dimension.
func Label(d analyzer.Dimension) string {
	return dimensionLabels[d]
}

// RenderReport produces the cached markdown report for an evaluation. The
// output is deterministic for identical inputs: it carries no generation
// timestamps, and map-backed sections are sorted.
func RenderReport(e *Evaluation) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Assessment Report\n\n")
	fmt.Fprintf(&sb, "Session: %s\n\n", e.SessionID)
	fmt.Fprintf(&sb, "Overall score: **%.1f/100**\n\n", e.OverallScore)
	if e.Degraded() {
		sb.WriteString("> Low-confidence evaluation: every dimension ran on limited signal.\n\n")
	}

	sb.WriteString("## Dimensions\n\n")
	sb.WriteString("| Dimension | Score | Confidence |\n")
	sb.WriteString("|---|---|---|\n")
	for _, d := range e.Dimensions {
		fmt.Fprintf(&sb, "| %s | %.1f | %.2f |\n", dimensionLabels[d.Dimension], d.Score, d.Confidence)
	}
	sb.WriteString("\n")

	for _, d := range e.Dimensions {
		fmt.Fprintf(&sb, "## %s\n\n", dimensionLabels[d.Dimension])

		if len(d.Breakdown) > 0 {
			keys := make([]string, 0, len(d.Breakdown))
			for k := range d.Breakdown {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&sb, "- %s: %.1f\n", k, d.Breakdown[k])
			}
			sb.WriteString("\n")
		}

		if len(d.Evidence) == 0 {
			sb.WriteString("No evidence collected.\n\n")
			continue
		}
		for _, ev := range d.Evidence {
			fmt.Fprintf(&sb, "- [%s] %s", ev.Importance, ev.Description)
			if ev.FilePath != "" {
				fmt.Fprintf(&sb, " (%s", ev.FilePath)
				if ev.LineNumber > 0 {
					fmt.Fprintf(&sb, ":%d", ev.LineNumber)
				}
				sb.WriteString(")")
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(e.Markers) > 0 {
		sb.WriteString("## Timeline Markers\n\n")
		for _, m := range e.Markers {
			fmt.Fprintf(&sb, "- %s evidence %d → event %d (%.0f%% through the session)\n",
				dimensionLabels[m.Dimension], m.EvidenceIndex, m.Sequence, m.Position*100)
		}
	}

	return sb.String()
}
