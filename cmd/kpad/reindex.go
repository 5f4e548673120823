package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newReindexCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the vector index from stored documents",
		Long: `Empties the vector index and re-ingests every catalogued document from the
object store with the current embedding model. Run this after changing the
embedding provider, model, dimension or metric. Document IDs are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			start := time.Now()
			out := cmd.OutOrStdout()

			a, err := opts.openApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintf(out, "Reindexing with %s (%d dimensions)...\n", a.Embedder.Name(), a.Embedder.Dimension())
			result, err := a.Pipeline.Reindex(ctx)
			if err != nil {
				return fmt.Errorf("reindex failed: %w", err)
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Reindex complete!")
			fmt.Fprintf(out, "  Documents: %d/%d\n", result.SuccessfulDocs, result.TotalDocs)
			fmt.Fprintf(out, "  Chunks: %d\n", result.TotalChunks)
			fmt.Fprintf(out, "  Duration: %s\n", result.Duration.Round(time.Millisecond))

			if len(result.FailedDocs) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Failed documents:")
				for _, failed := range result.FailedDocs {
					fmt.Fprintf(out, "  - %s (%s): %s\n", failed.Filename, failed.ID, failed.Reason)
				}
			}

			fmt.Fprintln(out)
			fmt.Fprintf(out, "Total time: %s\n", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}
