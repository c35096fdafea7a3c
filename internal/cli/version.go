package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set at build time via -ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// VersionString returns the short version identifier used by the HTTP
// server's health endpoint.
func VersionString() string {
	return Version
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("memkit %s (commit: %s, built: %s)\n", Version, Commit, BuildDate)
	},
}
