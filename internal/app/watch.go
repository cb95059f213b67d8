package app

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/assay/internal/output"
	"github.com/blackwell-systems/assay/internal/watcher"
)

var (
	watchFlagSession  string
	watchFlagDir      string
	watchFlagInterval time.Duration
	watchFlagNotify   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Record workspace file changes into a session",
	Long: `Poll a workspace directory and append a code snapshot event for every
file that is added or modified. Hidden directories, dependency trees, and
files over 1 MiB are skipped. Runs until interrupted.

Examples:
  assay watch --session abc123
  assay watch --session abc123 --dir ./workspace --interval 5s --notify`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		sess, err := resolveSession(cmd, rt, watchFlagSession)
		if err != nil {
			return err
		}

		onChange := func(c watcher.Change) {
			fmt.Printf(" %s %s %s\n", output.StyleSuccess.Render("captured"), c.Kind, c.Path)
			if watchFlagNotify {
				_ = watcher.Notify(c)
			}
		}

		w := watcher.New(rt.sessions, sess.ID, watchFlagDir, watchFlagInterval, onChange)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Watching %s into session %s (every %s). Ctrl-C to stop.\n",
			watchFlagDir, shortID(sess.ID), watchFlagInterval)

		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchFlagSession, "session", "", "Session ID or unique prefix (required)")
	_ = watchCmd.MarkFlagRequired("session")
	watchCmd.Flags().StringVar(&watchFlagDir, "dir", ".", "Workspace directory to watch")
	watchCmd.Flags().DurationVar(&watchFlagInterval, "interval", watcher.DefaultInterval, "Poll interval")
	watchCmd.Flags().BoolVar(&watchFlagNotify, "notify", false, "Send desktop notifications for captured changes")
	rootCmd.AddCommand(watchCmd)
}
