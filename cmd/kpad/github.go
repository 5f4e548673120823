package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	ghclient "github.com/bull/knowledge-pad/internal/github"
	"github.com/bull/knowledge-pad/internal/pipeline"
)

// fileSource is satisfied by *ghclient.Fetcher.
type fileSource interface {
	ListFiles(ctx context.Context) ([]string, error)
	FetchFile(ctx context.Context, relativePath string) (*ghclient.FetchedFile, error)
}

type ingester interface {
	Ingest(ctx context.Context, up pipeline.Upload) (*pipeline.IngestResult, error)
}

// importResult contains statistics about an import run.
type importResult struct {
	TotalFiles  int
	Imported    int
	TotalChunks int
	Failed      map[string]string // path -> reason
}

func newImportGitHubCmd(opts *rootOptions) *cobra.Command {
	var owner, repo, basePath, ref string
	cmd := &cobra.Command{
		Use:   "import-github",
		Short: "Ingest every PDF and Markdown file beneath a GitHub directory",
		Long: `Recursively lists a repository directory and ingests each matching file.

Environment variables:
  GITHUB_TOKEN   GitHub token for higher rate limits (optional)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			start := time.Now()
			out := cmd.OutOrStdout()

			a, err := opts.openApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			gh, err := ghclient.NewClient(os.Getenv("GITHUB_TOKEN"))
			if err != nil {
				return fmt.Errorf("failed to create GitHub client: %w", err)
			}
			fetcher := ghclient.NewFetcher(gh, owner, repo, basePath, ref, a.Config.Upload.AllowedExtensions)

			fmt.Fprintf(out, "Importing %s/%s/%s...\n", owner, repo, basePath)
			result, err := importFiles(ctx, fetcher, a.Pipeline, out)
			if err != nil {
				return err
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Import complete!")
			fmt.Fprintf(out, "  Documents: %d/%d\n", result.Imported, result.TotalFiles)
			fmt.Fprintf(out, "  Chunks: %d\n", result.TotalChunks)
			fmt.Fprintf(out, "  Duration: %s\n", time.Since(start).Round(time.Second))
			if len(result.Failed) > 0 {
				return fmt.Errorf("%d files failed to import", len(result.Failed))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "repository owner")
	cmd.Flags().StringVar(&repo, "repo", "", "repository name")
	cmd.Flags().StringVar(&basePath, "path", "", "directory within the repository (default: root)")
	cmd.Flags().StringVar(&ref, "ref", "", "branch, tag or commit (default: default branch)")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("repo")
	return cmd
}

// importFiles ingests every listed file. A file that fails is reported and
// skipped; listing failures abort.
func importFiles(ctx context.Context, src fileSource, dst ingester, out io.Writer) (*importResult, error) {
	paths, err := src.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	result := &importResult{TotalFiles: len(paths), Failed: map[string]string{}}
	for _, p := range paths {
		file, err := src.FetchFile(ctx, p)
		if err != nil {
			result.Failed[p] = err.Error()
			fmt.Fprintf(out, "  - %s: %v\n", p, err)
			continue
		}
		res, err := dst.Ingest(ctx, pipeline.Upload{Filename: file.Name, Data: file.Data})
		if err != nil {
			result.Failed[p] = err.Error()
			fmt.Fprintf(out, "  - %s: %v\n", p, err)
			continue
		}
		result.Imported++
		result.TotalChunks += res.Document.ChunkCount
		fmt.Fprintf(out, "  + %s (%d chunks)\n", p, res.Document.ChunkCount)
	}
	return result, nil
}
