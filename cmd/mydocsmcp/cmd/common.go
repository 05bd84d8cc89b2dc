package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mydocs-mcp/mydocs-mcp/internal/config"
	"github.com/mydocs-mcp/mydocs-mcp/internal/registry"
	"github.com/mydocs-mcp/mydocs-mcp/internal/server"
)

// loadConfig loads configuration for the current directory's project,
// walking up to find a project root the same way the serve subcommand
// does.
func loadConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		root = cwd
	}
	return config.Load(root)
}

// newDebugServer builds a Server for a one-shot CLI invocation (index,
// search, get, stats): loads config, opens the store, but never starts
// the watcher, since these subcommands exit after a single tool call.
func newDebugServer() (*server.Server, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	cfg.WatchEnabled = false
	return server.New(cfg, slog.Default())
}

// invokeAndPrint runs a single tool call through reg and writes the
// result to cmd's output stream as indented JSON, returning a non-nil
// error if the tool failed.
func invokeAndPrint(cmd *cobra.Command, reg *registry.Registry, tool string, args map[string]any) error {
	result := reg.Invoke(cmd.Context(), tool, args)
	if !result.Success {
		return fmt.Errorf("%s: %s (%s)", tool, result.Error.Message, result.Error.Code)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result.Data)
}
