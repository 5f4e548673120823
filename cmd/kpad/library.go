package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bull/knowledge-pad/internal/pipeline"
)

func newIngestCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Ingest PDF or Markdown files into the library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.openApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					fmt.Fprintf(out, "  - %s: %v\n", path, err)
					failed++
					continue
				}
				res, err := a.Pipeline.Ingest(ctx, pipeline.Upload{Filename: filepath.Base(path), Data: data})
				if err != nil {
					fmt.Fprintf(out, "  - %s: failed at %s: %v\n", path, res.FailedAt, err)
					failed++
					continue
				}
				fmt.Fprintf(out, "Ingested %s as %s (%d pages, %d chunks, %s)\n",
					res.Document.Filename, res.Document.ID, res.Document.PageCount, res.Document.ChunkCount,
					res.Duration.Round(time.Millisecond))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		topK     int
		filename string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "search QUERY...",
		Short: "Search the library by meaning",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.openApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			req := pipeline.SearchRequest{Query: strings.Join(args, " "), Filename: filename}
			if cmd.Flags().Changed("top-k") {
				req.TopK = &topK
			}
			resp, err := a.Pipeline.Search(ctx, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			printResults(out, resp)
			return nil
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of results (default from config)")
	cmd.Flags().StringVar(&filename, "filename", "", "only search this document")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw JSON response")
	return cmd
}

func printResults(w io.Writer, resp *pipeline.SearchResponse) {
	if len(resp.Results) == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}
	for _, r := range resp.Results {
		fmt.Fprintf(w, "%d. %s (page %d) score %.3f\n", r.Rank, r.Filename, r.Page, r.Score)
		fmt.Fprintf(w, "   %s\n", snippet(r.Snippet, 200))
	}
	fmt.Fprintf(w, "\n%d results in %.3fs\n", resp.TotalResults, resp.SearchTime)
}

func snippet(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show document and chunk counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.openApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.Pipeline.Stats(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Documents: %d\n", stats.Documents)
			fmt.Fprintf(out, "Chunks:    %d\n", stats.Chunks)
			fmt.Fprintf(out, "Model:     %s (%d dimensions, %s)\n", stats.Model, stats.Dimension, stats.Metric)
			return nil
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List documents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.openApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			docs, err := a.Pipeline.List(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFILENAME\tPAGES\tCHUNKS\tUPLOADED")
			for _, d := range docs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
					d.ID, d.Filename, d.PageCount, d.ChunkCount, d.UploadedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a document and its index records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.openApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Pipeline.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}
