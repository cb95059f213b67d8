package app

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/assay/internal/output"
	"github.com/blackwell-systems/assay/internal/store"
)

var sessionsFlagCandidate string

var sessionsCmd = &cobra.Command{
	Use:   "sessions [session-id]",
	Short: "Create, list, and inspect assessment sessions",
	Long: `Manage assessment sessions. With no arguments, lists all sessions.
With a session ID (or unique prefix), shows that session's log summary.

Examples:
  assay sessions                          # list all sessions
  assay sessions start --candidate c-42   # open a session for a candidate
  assay sessions complete abc12345        # mark a session completed
  assay sessions abc12345                 # inspect a single session`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSessions,
}

var sessionsStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Open a new session for a candidate",
	RunE:  runSessionsStart,
}

var sessionsCompleteCmd = &cobra.Command{
	Use:   "complete <session-id>",
	Short: "Mark a session completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsComplete,
}

func init() {
	sessionsStartCmd.Flags().StringVar(&sessionsFlagCandidate, "candidate", "", "Candidate identifier (required)")
	_ = sessionsStartCmd.MarkFlagRequired("candidate")
	sessionsCmd.AddCommand(sessionsStartCmd)
	sessionsCmd.AddCommand(sessionsCompleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	ctx := cmd.Context()
	if len(args) == 1 {
		sess, err := resolveSession(cmd, rt, args[0])
		if err != nil {
			return err
		}
		return renderSessionDetail(cmd, rt, sess)
	}

	sessions, err := rt.sessions.List(ctx)
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sessions)
	}

	if len(sessions) == 0 {
		fmt.Println(" No sessions recorded.")
		return nil
	}

	fmt.Println(output.Section("Sessions"))
	fmt.Println()
	tbl := output.NewTable("ID", "Candidate", "State", "Started", "Completed")
	for _, s := range sessions {
		completed := ""
		if s.CompletedAt != nil {
			completed = s.CompletedAt.Format("Jan 02 15:04")
		}
		state := s.State
		if s.State == store.SessionCompleted {
			state = output.StyleSuccess.Render(s.State)
		}
		tbl.AddRow(shortID(s.ID), s.CandidateID, state, s.StartedAt.Format("Jan 02 15:04"), completed)
	}
	tbl.Print()
	return nil
}

func runSessionsStart(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	sess, err := rt.sessions.Start(cmd.Context(), sessionsFlagCandidate)
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sess)
	}
	fmt.Println(sess.ID)
	return nil
}

func runSessionsComplete(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	sess, err := resolveSession(cmd, rt, args[0])
	if err != nil {
		return err
	}
	sess, err = rt.sessions.Complete(cmd.Context(), sess.ID)
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sess)
	}
	fmt.Printf(" %s %s\n", output.StyleSuccess.Render("completed"), sess.ID)
	return nil
}

func renderSessionDetail(cmd *cobra.Command, rt *runtime, sess *store.Session) error {
	ctx := cmd.Context()
	count, err := rt.db.CountEvents(ctx, sess.ID)
	if err != nil {
		return err
	}
	last, err := rt.db.LastSequence(ctx, sess.ID)
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"session":       sess,
			"event_count":   count,
			"last_sequence": last,
		})
	}

	fmt.Println(output.Section("Session"))
	fmt.Println()
	label := func(l, v string) {
		fmt.Printf(" %s  %s\n", output.StyleLabel.Render(l), output.StyleBold.Render(v))
	}
	label("Session ID", sess.ID)
	label("Candidate", sess.CandidateID)
	label("State", sess.State)
	label("Started", sess.StartedAt.Format(time.RFC3339))
	if sess.CompletedAt != nil {
		label("Completed", sess.CompletedAt.Format(time.RFC3339))
	}
	label("Events", fmt.Sprintf("%d", count))
	label("Last sequence", fmt.Sprintf("%d", last))
	return nil
}

// resolveSession finds a session by full ID or unique prefix.
func resolveSession(cmd *cobra.Command, rt *runtime, prefix string) (*store.Session, error) {
	ctx := cmd.Context()
	if sess, err := rt.sessions.Get(ctx, prefix); err == nil {
		return sess, nil
	}

	sessions, err := rt.sessions.List(ctx)
	if err != nil {
		return nil, err
	}
	var matched *store.Session
	for _, s := range sessions {
		if strings.HasPrefix(s.ID, prefix) {
			if matched != nil {
				return nil, fmt.Errorf("ambiguous session prefix %q: matches multiple sessions, use more characters", prefix)
			}
			matched = s
		}
	}
	if matched == nil {
		return nil, fmt.Errorf("no session found matching %q", prefix)
	}
	return matched, nil
}

// shortID truncates a UUID for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
