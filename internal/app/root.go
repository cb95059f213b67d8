// Package app contains the Cobra command tree for assay.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "assay",
	Short: "Record and evaluate AI-assisted coding assessments",
	Long: `assay records candidate coding sessions as append-only event logs,
stores code artifacts content-addressed, and evaluates completed sessions
across four dimensions with every judgment linked back to the raw events
that produced it.

Run 'assay' with no arguments to see the available subcommands.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("assay", appVersion)
		fmt.Println()
		fmt.Println("Use a subcommand:")
		fmt.Println("  sessions   Create, list, and complete assessment sessions")
		fmt.Println("  record     Append chat, code, terminal, and question events")
		fmt.Println("  watch      Record workspace file changes into a session")
		fmt.Println("  import     Import an assistant transcript into a session")
		fmt.Println("  bridge     Serve the stdio JSON-RPC recording bridge")
		fmt.Println("  tail       Follow a session's event log live")
		fmt.Println("  evaluate   Score a session across the four dimensions")
		fmt.Println("  replay     Reconstruct session state at any point in the log")
		fmt.Println("  artifacts  Retrieve stored artifacts and mint access URLs")
		fmt.Println("  serve      Stream live sessions and serve artifacts over HTTP")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/assay/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose output")
}
