package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newGetCmd() *cobra.Command {
	var (
		filePath        string
		documentID      int64
		includeMetadata bool
		maxContentBytes int64
	)

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Fetch a single indexed document",
		Long: `get fetches one document's content and metadata from the store,
calling the same getDocument tool handler the MCP server exposes.
Exactly one of --file or --id must be given.`,
		Example: `  mydocsmcp get --file notes.txt
  mydocsmcp get --id 42 --metadata=false
  mydocsmcp get --file notes.txt --max-bytes 2000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (filePath == "") == (documentID == 0) {
				return fmt.Errorf("exactly one of --file or --id must be given")
			}

			srv, err := newDebugServer()
			if err != nil {
				return err
			}
			defer srv.Store().Close()

			toolArgs := map[string]any{
				"include_metadata": includeMetadata,
			}
			if filePath != "" {
				abs, err := filepath.Abs(filePath)
				if err != nil {
					return fmt.Errorf("resolve %q: %w", filePath, err)
				}
				toolArgs["file_path"] = abs
			} else {
				toolArgs["document_id"] = documentID
			}
			if maxContentBytes > 0 {
				toolArgs["max_content_bytes"] = maxContentBytes
			}

			return invokeAndPrint(cmd, srv.Registry(), "getDocument", toolArgs)
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "Path of the document to fetch")
	cmd.Flags().Int64Var(&documentID, "id", 0, "ID of the document to fetch")
	cmd.Flags().BoolVar(&includeMetadata, "metadata", true, "Include extracted metadata fields")
	cmd.Flags().Int64Var(&maxContentBytes, "max-bytes", 0, "Truncate content to this many bytes (0 = no limit)")

	return cmd
}
