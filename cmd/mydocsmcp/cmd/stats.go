package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show store statistics",
		Long:  `stats reports how many documents and tokens are indexed, and the store's on-disk size.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv, err := newDebugServer()
			if err != nil {
				return err
			}
			defer srv.Store().Close()

			stats, err := srv.Store().Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("get stats: %w", err)
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Documents: %d\n", stats.DocumentCount)
			fmt.Fprintf(w, "Tokens:    %d\n", stats.TokenCount)
			fmt.Fprintf(w, "Database:  %d bytes\n", stats.DatabaseBytes)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
