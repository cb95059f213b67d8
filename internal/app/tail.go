package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/assay/internal/event"
	"github.com/blackwell-systems/assay/internal/output"
)

var (
	tailFlagSession string
	tailFlagSince   int64
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow a session's event log live",
	Long: `Print a session's events as they are appended, starting from a cursor.
Reconnects with backoff if the live subscription falls behind, resuming
from the last printed sequence so nothing is missed or repeated.

Examples:
  assay tail --session abc123
  assay tail --session abc123 --since 40`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		sess, err := resolveSession(cmd, rt, tailFlagSession)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		enc := json.NewEncoder(os.Stdout)
		handler := func(ev *event.Event) error {
			if flagJSON {
				return enc.Encode(ev)
			}
			line := fmt.Sprintf("%6d  %-22s", ev.Sequence, ev.Type)
			if ev.FilePath != "" {
				line += "  " + ev.FilePath
			}
			if ev.Checkpoint {
				line += "  " + output.StyleWarning.Render("checkpoint")
			}
			fmt.Println(line)
			return nil
		}

		err = rt.broadcaster().Follow(ctx, rt.cfg.Backoff.Policy(), sess.ID, tailFlagSince, handler)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	tailCmd.Flags().StringVar(&tailFlagSession, "session", "", "Session ID or unique prefix (required)")
	_ = tailCmd.MarkFlagRequired("session")
	tailCmd.Flags().Int64Var(&tailFlagSince, "since", 0, "Start after this sequence number")
	rootCmd.AddCommand(tailCmd)
}
