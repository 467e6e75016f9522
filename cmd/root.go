package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

// SetVersion sets the application version (called from main)
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "varefined",
	Short: "Batch armor/helmet FX and loudness normalisation for voice lines",
	Long: `varefined prepares game voice-line assets.

It provides two sub-tools:
  - armorfx: render a single file through the helmet/armor effect chain
  - batch:   walk a sound tree, loudness-normalise every line and render
             its m_-prefixed helmet variant into a mirrored output tree

External tools (sox_ng or sox, plus ffmpeg) do the actual decoding,
filtering and encoding. Their paths can be overridden with --sox and
--ffmpeg, or the VAREFINED_SOX / VAREFINED_FFMPEG / VAREFINED_FFPROBE
environment variables.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("varefined %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
