package app

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/assay/internal/bridge"
)

var bridgeFlagSession string

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Serve the stdio JSON-RPC recording bridge",
	Long: `Speak line-delimited JSON-RPC 2.0 over stdin/stdout, exposing the
recording operations for one session. Capture plugins use this instead of
invoking the CLI per event.

Methods: initialize, record.chat, record.reset, record.snapshot,
record.test, record.command, record.output, question.start,
question.complete, question.skip, session.complete.

Example:
  assay bridge --session abc123 < requests.jsonl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		sess, err := resolveSession(cmd, rt, bridgeFlagSession)
		if err != nil {
			return err
		}

		srv := bridge.NewServer(rt.sessions, sess.ID, appVersion)
		return srv.Run(cmd.Context(), os.Stdin, os.Stdout)
	},
}

func init() {
	bridgeCmd.Flags().StringVar(&bridgeFlagSession, "session", "", "Session ID or unique prefix (required)")
	_ = bridgeCmd.MarkFlagRequired("session")
	rootCmd.AddCommand(bridgeCmd)
}
