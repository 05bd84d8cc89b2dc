// Package cmd provides the CLI commands for mydocs-mcp.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mydocs-mcp/mydocs-mcp/internal/logging"
	"github.com/mydocs-mcp/mydocs-mcp/pkg/version"
)

// Debug logging flag, shared by every subcommand through
// PersistentPreRunE.
var debugMode bool

// NewRootCmd creates the root command for the mydocsmcp CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mydocsmcp",
		Short: "Local-first document intelligence MCP server",
		Long: `mydocsmcp indexes a directory of documents and exposes
indexDocument, searchDocuments, and getDocument over the Model Context
Protocol so an AI coding assistant can search your notes and docs.

Run 'mydocsmcp serve' to start the MCP server over stdio, or use the
index/search/get/stats subcommands to drive the same tools directly
from a terminal for local debugging.`,
		Version:           version.Version,
		PersistentPreRunE: setupLogging,
	}
	cmd.SetVersionTemplate("mydocsmcp version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable verbose logging to stderr")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setupLogging builds the process-wide default logger once flags are
// parsed. serve never writes to stdout (reserved for JSON-RPC frames);
// every subcommand logs to stderr instead, per internal/logging's doc
// comment.
func setupLogging(_ *cobra.Command, _ []string) error {
	level := "info"
	if debugMode {
		level = "debug"
	}
	slog.SetDefault(logging.NewCLILogger(level))
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
