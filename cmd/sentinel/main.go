// Command sentinel drives the brand-intelligence signal pipeline end to
// end for manual testing: replay a fixture against a scope, or report a
// trend over the stored run history. It is a thin entry point — no
// terminal UI, no live detectors.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/duskwatch/sentinel/internal/sentinel/logutil"
)

// Version, BuildTime, and GitCommit are stamped at build time via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// osExit is indirected for testability.
var osExit = os.Exit

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Deterministic brand-intelligence signal pipeline",
}

func main() {
	logutil.Setup(true)

	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newTrendCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintln(os.Stderr, err)
		osExit(1)
	}
}
