// Root command for the presstool CLI.
package main

import (
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDBPath    string
)

var rootCmd = &cobra.Command{
	Use:   "presstool",
	Short: "presstool is the driftpress tool server",
	Long: `presstool exposes the driftpress content mirror to MCP clients over a
framed JSON-RPC stream on stdin/stdout. The mirror database is shared with
the driftpress desktop application, which owns sync and schema.`,
	Version: version,
	// Subcommands report their own errors; cobra should not add usage text.
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: $(CWD)/.driftpress)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "mirror database file (default: <config-dir>/mirror.db)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
