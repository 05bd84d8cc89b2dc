package cmd

import (
	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var (
		limit     int64
		fileTypes []string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed documents",
		Long: `search runs a keyword query against the store, calling the same
searchDocuments tool handler the MCP server exposes. Supports the same
query syntax as the tool: quoted phrases, a leading '-' to exclude a
term, and --type to restrict results to specific file type labels
(markdown, text).`,
		Example: `  mydocsmcp search "quarterly report"
  mydocsmcp search budget --limit 5
  mydocsmcp search notes --type markdown --type text`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newDebugServer()
			if err != nil {
				return err
			}
			defer srv.Store().Close()

			toolArgs := map[string]any{
				"query": args[0],
				"limit": limit,
			}
			if len(fileTypes) > 0 {
				toolArgs["file_types"] = toAnySlice(fileTypes)
			}

			return invokeAndPrint(cmd, srv.Registry(), "searchDocuments", toolArgs)
		},
	}

	cmd.Flags().Int64Var(&limit, "limit", 20, "Maximum number of results (1-100)")
	cmd.Flags().StringSliceVar(&fileTypes, "type", nil, "Restrict results to these file type labels (repeatable)")

	return cmd
}

// toAnySlice boxes a string slice as []any, which is what the
// searchDocuments handler expects for file_types.
func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
