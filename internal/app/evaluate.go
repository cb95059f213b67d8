package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/assay/internal/advice"
	"github.com/blackwell-systems/assay/internal/evaluation"
	"github.com/blackwell-systems/assay/internal/output"
)

var (
	evaluateFlagShow   bool
	evaluateFlagReport bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <session-id>",
	Short: "Score a session across the four dimensions",
	Long: `Run the dimension analyzers over a session's full event log, combine
the scores into an overall evaluation, and link every piece of evidence
back to the event that produced it. Evaluations are deterministic: an
unchanged log yields identical scores, evidence, and markers.

Examples:
  assay evaluate abc12345            # evaluate and render the summary
  assay evaluate abc12345 --show     # render the latest stored evaluation
  assay evaluate abc12345 --report   # print the markdown report`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().BoolVar(&evaluateFlagShow, "show", false, "Show the latest stored evaluation instead of recomputing")
	evaluateCmd.Flags().BoolVar(&evaluateFlagReport, "report", false, "Print the markdown report instead of the styled summary")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	sess, err := resolveSession(cmd, rt, args[0])
	if err != nil {
		return err
	}

	var eval *evaluation.Evaluation
	if evaluateFlagShow {
		eval, err = rt.engine.Latest(cmd.Context(), sess.ID)
	} else {
		eval, err = rt.engine.Evaluate(cmd.Context(), sess.ID)
	}
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(eval)
	}
	if evaluateFlagReport {
		fmt.Print(eval.Report)
		return nil
	}

	renderEvaluation(eval, rt.cfg.Weights)
	return nil
}

func renderEvaluation(eval *evaluation.Evaluation, weights evaluation.Weights) {
	fmt.Println(output.Section("Evaluation"))
	fmt.Println()
	fmt.Printf(" %s  %s\n", output.StyleLabel.Render("Session"), output.StyleBold.Render(eval.SessionID))
	fmt.Printf(" %s  %s\n", output.StyleLabel.Render("Overall"), output.ScoreBar(eval.OverallScore, 20))
	if eval.Degraded() {
		fmt.Printf(" %s\n", output.StyleWarning.Render("Low-confidence evaluation: every dimension ran on limited signal."))
	}
	fmt.Println()

	for _, d := range eval.Dimensions {
		fmt.Printf(" %s  %s  %s\n",
			output.StyleLabel.Render(evaluation.Label(d.Dimension)),
			output.ScoreBar(d.Score, 20),
			output.ConfidenceTag(d.Confidence))
	}

	if len(eval.Markers) > 0 {
		fmt.Println(output.Section("Timeline Markers"))
		fmt.Println()
		tbl := output.NewTable("Dimension", "Seq", "Position", "Importance")
		for _, m := range eval.Markers {
			tbl.AddRow(
				string(m.Dimension),
				fmt.Sprintf("%d", m.Sequence),
				output.TimelinePosition(m.Position),
				m.Importance,
			)
		}
		tbl.Print()
	}

	notes := advice.NewEngine().Run(&advice.ReviewContext{Eval: eval, Weights: weights})
	if len(notes) > 0 {
		fmt.Println(output.Section("Reviewer Notes"))
		fmt.Println()
		if len(notes) > 5 {
			notes = notes[:5]
		}
		for _, n := range notes {
			fmt.Printf(" %s %s\n", noteTag(n.Priority), output.StyleBold.Render(n.Title))
			fmt.Printf("   %s\n", output.StyleMuted.Render(n.Detail))
		}
	}
	fmt.Println()
	fmt.Printf(" %s\n", output.StyleMuted.Render("Use --report for the full markdown report, --json for machine output"))
}

func noteTag(priority int) string {
	switch priority {
	case advice.PriorityCritical:
		return output.StyleError.Render("[!!]")
	case advice.PriorityHigh:
		return output.StyleWarning.Render("[! ]")
	default:
		return output.StyleMuted.Render("[  ]")
	}
}
