package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mydocs-mcp/mydocs-mcp/internal/server"
)

func newServeCmd() *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Long: `serve runs the protocol engine: it reads line-delimited JSON-RPC
requests from stdin and writes responses to stdout until stdin reaches
EOF. stdout is reserved exclusively for JSON-RPC frames — all logging
goes to stderr — so an MCP host can launch this as a subprocess and
speak the protocol directly over its stdio pipes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if transport != "stdio" {
				return fmt.Errorf("unsupported transport %q: only \"stdio\" is supported", transport)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			srv, err := server.New(cfg, slog.Default())
			if err != nil {
				return err
			}

			return srv.Serve(cmd.Context(), os.Stdin, os.Stdout)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "MCP transport (only stdio is supported)")

	return cmd
}
