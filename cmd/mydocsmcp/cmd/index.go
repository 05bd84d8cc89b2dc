package cmd

import (
	"github.com/spf13/cobra"
)

func newIndexCmd() *cobra.Command {
	var forceReindex bool

	cmd := &cobra.Command{
		Use:   "index <file>",
		Short: "Index a single document",
		Long: `index parses and indexes one document into the store, calling the
same indexDocument tool handler the MCP server exposes. Useful for
indexing a file without attaching an MCP host, or for checking whether
a file would reindex before saving it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newDebugServer()
			if err != nil {
				return err
			}
			defer srv.Store().Close()

			return invokeAndPrint(cmd, srv.Registry(), "indexDocument", map[string]any{
				"file_path":     args[0],
				"force_reindex": forceReindex,
			})
		},
	}

	cmd.Flags().BoolVar(&forceReindex, "force", false, "Reindex even if the content hash is unchanged")

	return cmd
}
