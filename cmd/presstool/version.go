package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is the build version reported by the CLI and the initialize
// handshake.
const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("presstool v%s\n", version)
	},
}
