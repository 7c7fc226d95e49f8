// The serve command: startup gate, store open, and the protocol loop.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/driftpress/driftpress/internal/config"
	"github.com/driftpress/driftpress/internal/logging"
	"github.com/driftpress/driftpress/internal/rpc"
	"github.com/driftpress/driftpress/internal/store"
	"github.com/driftpress/driftpress/internal/tools"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tool server on stdin/stdout",
	Long: `Serve reads framed JSON-RPC requests from stdin and writes framed
responses to stdout. Diagnostics go to stderr. The server refuses to start
unless tool access is enabled in configuration.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := logging.Default()

	configDir, err := config.ResolveConfigDir(flagConfigDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}

	cfg, err := config.Load(configDir, flagDBPath)
	if err != nil {
		return sysError(fmt.Errorf("load config: %w", err))
	}

	// Startup gate: the feature must be switched on explicitly.
	if !cfg.ToolsEnabled {
		logger.Error(config.GateMessage())
		os.Exit(exitUserError)
	}

	st, err := store.Open(cfg.DBPath, cfg.LockTimeout)
	if err != nil {
		return sysError(fmt.Errorf("open mirror store: %w", err))
	}

	logger.Info("tool server started", "db", cfg.DBPath, "lock_timeout", cfg.LockTimeout)

	registry := tools.NewRegistry(st)
	engine := rpc.NewEngine(registry, version, os.Stdout, logger)
	server := rpc.NewServer(engine, st, os.Stdin, logger)

	if err := server.Run(); err != nil {
		return sysError(err)
	}
	return nil
}

// sysError logs err and exits with the system-error code. Returning the
// error to cobra would print it to stderr a second time.
func sysError(err error) error {
	logging.Error(err.Error())
	os.Exit(exitSysError)
	return nil // unreachable
}
