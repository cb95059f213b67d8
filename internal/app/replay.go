package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/assay/internal/output"
	"github.com/blackwell-systems/assay/internal/store"
)

var (
	replayFlagSeq      int64
	replayFlagTimeline bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <session-id>",
	Short: "Reconstruct session state at any point in the log",
	Long: `Reconstruct the candidate's workspace as of a sequence number: the
file tree, chat transcript, terminal scrollback, and test runs observed so
far. Seeks resume from the nearest checkpoint at or before the target
instead of replaying the whole log.

Examples:
  assay replay abc12345                 # state at the end of the log
  assay replay abc12345 --seq 40        # state as of sequence 40
  assay replay abc12345 --timeline      # list the event timeline instead`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().Int64Var(&replayFlagSeq, "seq", 0, "Target sequence number (default: end of log)")
	replayCmd.Flags().BoolVar(&replayFlagTimeline, "timeline", false, "List the event timeline instead of reconstructing state")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	ctx := cmd.Context()
	sess, err := resolveSession(cmd, rt, args[0])
	if err != nil {
		return err
	}

	if replayFlagTimeline {
		return runTimeline(cmd, rt, sess.ID)
	}

	target := replayFlagSeq
	if target <= 0 {
		target, err = rt.db.LastSequence(ctx, sess.ID)
		if err != nil {
			return err
		}
	}

	state, err := rt.replay.Seek(ctx, sess.ID, target)
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	}

	fmt.Println(output.Section("Replay"))
	fmt.Println()
	label := func(l, v string) {
		fmt.Printf(" %s  %s\n", output.StyleLabel.Render(l), output.StyleBold.Render(v))
	}
	label("Session", state.SessionID)
	label("Sequence", fmt.Sprintf("%d of %d", state.Sequence, state.TotalEvents))
	if state.FromCheckpoint > 0 {
		label("From checkpoint", fmt.Sprintf("%d", state.FromCheckpoint))
	}

	fmt.Println(output.Section("Files"))
	fmt.Println()
	if len(state.Files) == 0 {
		fmt.Printf(" %s\n", output.StyleMuted.Render("No files snapshotted yet"))
	} else {
		tbl := output.NewTable("Path", "Bytes")
		for path, content := range state.Files {
			tbl.AddRow(path, fmt.Sprintf("%d", len(content)))
		}
		tbl.Print()
	}

	fmt.Println(output.Section("Transcript"))
	fmt.Println()
	if len(state.Transcript) == 0 {
		fmt.Printf(" %s\n", output.StyleMuted.Render("No chat turns yet"))
	} else {
		for _, turn := range state.Transcript {
			role := output.StyleBold.Render(turn.Role)
			if turn.Role == "assistant" {
				role = output.StyleHeader.Render(turn.Role)
			}
			content := turn.Content
			if len(content) > 120 {
				content = content[:120] + "…"
			}
			fmt.Printf(" %s  %s\n", role, content)
		}
	}

	fmt.Println(output.Section("Tests"))
	fmt.Println()
	if len(state.TestRuns) == 0 {
		fmt.Printf(" %s\n", output.StyleMuted.Render("No test runs yet"))
	} else {
		for _, run := range state.TestRuns {
			fmt.Printf(" seq %-4d %s\n", run.Sequence, output.PassFail(run.Passed, run.Failed))
		}
	}
	fmt.Println()
	return nil
}

func runTimeline(cmd *cobra.Command, rt *runtime, sessionID string) error {
	events, err := rt.db.ReadEvents(cmd.Context(), sessionID, store.Filter{})
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}

	fmt.Println(output.Section("Timeline"))
	fmt.Println()
	tbl := output.NewTable("Seq", "Time", "Type", "Checkpoint", "File")
	for _, ev := range events {
		cp := ""
		if ev.Checkpoint {
			cp = output.StyleSuccess.Render("✓")
		}
		tbl.AddRow(
			fmt.Sprintf("%d", ev.Sequence),
			ev.Timestamp.Format("15:04:05"),
			string(ev.Type),
			cp,
			ev.FilePath,
		)
	}
	tbl.Print()
	return nil
}
