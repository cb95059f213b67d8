package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/assay/internal/output"
)

var (
	artifactsFlagOwner string
	artifactsFlagTTL   string
)

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "Retrieve stored artifacts and mint access URLs",
	Long: `Work with the content-addressed artifact store directly. Artifacts
are keyed by owner and SHA-256 checksum; access URLs are HMAC-signed and
time-limited.

Examples:
  assay artifacts get --owner c-42 3b4f...     # decompressed content to stdout
  assay artifacts url --owner c-42 3b4f...     # mint a signed URL
  assay artifacts url --owner c-42 3b4f... 9a1c...   # batch`,
}

var artifactsGetCmd = &cobra.Command{
	Use:   "get <checksum>",
	Short: "Write an artifact's content to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		content, err := rt.artifacts.Retrieve(cmd.Context(), artifactsFlagOwner, args[0])
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(content)
		return err
	},
}

var artifactsURLCmd = &cobra.Command{
	Use:   "url <checksum>...",
	Short: "Mint signed time-limited access URLs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runArtifactsURL,
}

func init() {
	artifactsCmd.PersistentFlags().StringVar(&artifactsFlagOwner, "owner", "", "Owner (candidate) ID (required)")
	_ = artifactsCmd.MarkPersistentFlagRequired("owner")
	artifactsCmd.AddCommand(artifactsGetCmd, artifactsURLCmd)
	rootCmd.AddCommand(artifactsCmd)
}

func runArtifactsURL(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	ttl := rt.cfg.Artifacts.URLTTL

	if len(args) == 1 {
		u, err := rt.artifacts.AccessURL(artifactsFlagOwner, args[0], ttl)
		if err != nil {
			return err
		}
		fmt.Println(u)
		return nil
	}

	urls := rt.artifacts.BatchAccessURLs(artifactsFlagOwner, args, ttl)
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(urls)
	}
	for _, checksum := range args {
		if u, ok := urls[checksum]; ok {
			fmt.Printf(" %s  %s\n", shortID(checksum), u)
		} else {
			fmt.Printf(" %s  %s\n", shortID(checksum), output.StyleError.Render("unavailable"))
		}
	}
	return nil
}
