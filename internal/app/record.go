package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/assay/internal/event"
	"github.com/blackwell-systems/assay/internal/output"
)

var (
	recordFlagSession string
	recordFlagRole    string
	recordFlagFile    string
	recordFlagLang    string
	recordFlagPassed  int
	recordFlagFailed  int
	recordFlagSuite   string
	recordFlagCwd     string
	recordFlagStream  string
	recordFlagTitle   string
	recordFlagScore   float64
	recordFlagReason  string
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Append events to a session's log",
	Long: `Append validated events to a session's append-only log. Each append
is assigned the next sequence number by the store; transient storage
failures are retried with backoff and recorded as system.error events when
the retry budget runs out.

Examples:
  assay record chat --session abc123 --role user "How do I memoize this?"
  assay record snapshot --session abc123 --file src/cache.js
  assay record test --session abc123 --passed 12 --failed 1
  assay record command --session abc123 "npm test"
  assay record question start --session abc123 q1 --title "LRU cache"
  assay record question complete --session abc123 q1 --score 0.85`,
}

var recordChatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Append a chat turn",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(rt *runtime, sessionID string) (*event.Event, error) {
			return rt.sessions.RecordChat(cmd.Context(), sessionID, &event.ChatMessage{
				Role:    recordFlagRole,
				Content: args[0],
			})
		})
	},
}

var recordResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Append a chat reset (a replay checkpoint)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(rt *runtime, sessionID string) (*event.Event, error) {
			return rt.sessions.RecordChatReset(cmd.Context(), sessionID, recordFlagReason)
		})
	},
}

var recordSnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Append a code snapshot, offloading large files to the artifact store",
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(recordFlagFile)
		if err != nil {
			return fmt.Errorf("reading snapshot file: %w", err)
		}
		return withSession(cmd, func(rt *runtime, sessionID string) (*event.Event, error) {
			return rt.sessions.RecordSnapshot(cmd.Context(), sessionID, recordFlagFile, recordFlagLang, content)
		})
	},
}

var recordTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Append a test run result",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(rt *runtime, sessionID string) (*event.Event, error) {
			return rt.sessions.RecordTestRun(cmd.Context(), sessionID, &event.TestRun{
				Passed: recordFlagPassed,
				Failed: recordFlagFailed,
				Suite:  recordFlagSuite,
			})
		})
	},
}

var recordCommandCmd = &cobra.Command{
	Use:   "command <command-line>",
	Short: "Append a terminal command",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(rt *runtime, sessionID string) (*event.Event, error) {
			return rt.sessions.RecordCommand(cmd.Context(), sessionID, args[0], recordFlagCwd)
		})
	},
}

var recordOutputCmd = &cobra.Command{
	Use:   "output <text>",
	Short: "Append terminal output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(rt *runtime, sessionID string) (*event.Event, error) {
			return rt.sessions.RecordOutput(cmd.Context(), sessionID, args[0], recordFlagStream)
		})
	},
}

var recordQuestionCmd = &cobra.Command{
	Use:   "question",
	Short: "Append question lifecycle events",
}

var recordQuestionStartCmd = &cobra.Command{
	Use:   "start <question-id>",
	Short: "Append a question start (a replay checkpoint)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(rt *runtime, sessionID string) (*event.Event, error) {
			return rt.sessions.StartQuestion(cmd.Context(), sessionID, &event.QuestionStarted{
				QuestionID: args[0],
				Title:      recordFlagTitle,
			})
		})
	},
}

var recordQuestionCompleteCmd = &cobra.Command{
	Use:   "complete <question-id>",
	Short: "Append a question completion with its score",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(rt *runtime, sessionID string) (*event.Event, error) {
			return rt.sessions.CompleteQuestion(cmd.Context(), sessionID, args[0], recordFlagScore)
		})
	},
}

var recordQuestionSkipCmd = &cobra.Command{
	Use:   "skip <question-id>",
	Short: "Append a question skip",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(rt *runtime, sessionID string) (*event.Event, error) {
			return rt.sessions.SkipQuestion(cmd.Context(), sessionID, args[0], recordFlagReason)
		})
	},
}

func init() {
	recordCmd.PersistentFlags().StringVar(&recordFlagSession, "session", "", "Session ID or unique prefix (required)")
	_ = recordCmd.MarkPersistentFlagRequired("session")

	recordChatCmd.Flags().StringVar(&recordFlagRole, "role", "user", "Chat role: user or assistant")
	recordResetCmd.Flags().StringVar(&recordFlagReason, "reason", "", "Why the conversation was reset")
	recordSnapshotCmd.Flags().StringVar(&recordFlagFile, "file", "", "Path of the file to snapshot (required)")
	recordSnapshotCmd.Flags().StringVar(&recordFlagLang, "language", "", "Language hint for the snapshot")
	_ = recordSnapshotCmd.MarkFlagRequired("file")
	recordTestCmd.Flags().IntVar(&recordFlagPassed, "passed", 0, "Number of passing tests")
	recordTestCmd.Flags().IntVar(&recordFlagFailed, "failed", 0, "Number of failing tests")
	recordTestCmd.Flags().StringVar(&recordFlagSuite, "suite", "", "Test suite name")
	recordCommandCmd.Flags().StringVar(&recordFlagCwd, "cwd", "", "Working directory of the command")
	recordOutputCmd.Flags().StringVar(&recordFlagStream, "stream", "stdout", "Output stream: stdout or stderr")
	recordQuestionStartCmd.Flags().StringVar(&recordFlagTitle, "title", "", "Question title")
	recordQuestionCompleteCmd.Flags().Float64Var(&recordFlagScore, "score", 0, "Question score in [0,1]")
	recordQuestionSkipCmd.Flags().StringVar(&recordFlagReason, "reason", "", "Why the question was skipped")

	recordQuestionCmd.AddCommand(recordQuestionStartCmd, recordQuestionCompleteCmd, recordQuestionSkipCmd)
	recordCmd.AddCommand(recordChatCmd, recordResetCmd, recordSnapshotCmd, recordTestCmd,
		recordCommandCmd, recordOutputCmd, recordQuestionCmd)
	rootCmd.AddCommand(recordCmd)
}

// withSession opens the runtime, resolves the --session flag, runs the
// append, and prints the assigned sequence number.
func withSession(cmd *cobra.Command, fn func(rt *runtime, sessionID string) (*event.Event, error)) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	sess, err := resolveSession(cmd, rt, recordFlagSession)
	if err != nil {
		return err
	}

	ev, err := fn(rt, sess.ID)
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ev)
	}
	fmt.Printf(" %s %s seq %d\n", output.StyleSuccess.Render("appended"), ev.Type, ev.Sequence)
	return nil
}
