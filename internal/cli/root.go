// Package cli implements the memkit command-line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "memkit",
	Short: "Persistent memory for AI assistants",
	Long: "Claude Memory Kit stores first-person memories behind write gates,\n" +
		"retrieves them with layered search, and maintains the set over time\n" +
		"through decay and consolidation. Serves MCP over stdio and a local\n" +
		"HTTP API.",
}

// tenantFlag selects the tenant for every command. All data is scoped
// under it.
var tenantFlag string

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&tenantFlag, "user", "local", "tenant id to operate on")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(rememberCmd)
	rootCmd.AddCommand(recallCmd)
	rootCmd.AddCommand(forgetCmd)
	rootCmd.AddCommand(reflectCmd)
	rootCmd.AddCommand(identityCmd)
	rootCmd.AddCommand(checkpointCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(extractCmd)
}
