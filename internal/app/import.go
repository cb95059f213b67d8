package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/assay/internal/ingest"
	"github.com/blackwell-systems/assay/internal/output"
)

var importFlagSession string

var importCmd = &cobra.Command{
	Use:   "import <transcript.jsonl>",
	Short: "Import an assistant transcript into a session",
	Long: `Read a JSONL transcript export and append its chat turns, commands,
tool output, and file writes to a session's log, in transcript order.
Imported events pass the same validation as live ones; malformed lines
are skipped and counted.

Example:
  assay import --session abc123 transcript.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		sess, err := resolveSession(cmd, rt, importFlagSession)
		if err != nil {
			return err
		}

		stats, err := ingest.New(rt.sessions).ImportFile(cmd.Context(), sess.ID, args[0])
		if err != nil {
			return err
		}

		if flagJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}

		fmt.Printf(" %s %d events into %s\n", output.StyleSuccess.Render("imported"), stats.Total(), shortID(sess.ID))
		fmt.Printf("   %s %d   %s %d   %s %d   %s %d   %s %d\n",
			output.StyleLabel.Render("chat"), stats.Chat,
			output.StyleLabel.Render("commands"), stats.Commands,
			output.StyleLabel.Render("outputs"), stats.Outputs,
			output.StyleLabel.Render("snapshots"), stats.Snapshots,
			output.StyleLabel.Render("skipped"), stats.Skipped)
		if !stats.Start.IsZero() {
			fmt.Printf("   %s %s → %s\n", output.StyleLabel.Render("span"),
				stats.Start.Format("2006-01-02 15:04:05"), stats.End.Format("15:04:05"))
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFlagSession, "session", "", "Session ID or unique prefix (required)")
	_ = importCmd.MarkFlagRequired("session")
	rootCmd.AddCommand(importCmd)
}
