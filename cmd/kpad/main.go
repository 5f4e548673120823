// Package main provides the kpad CLI for managing a Knowledge Pad library:
// ingesting files, searching, listing, deleting, reindexing and serving MCP
// over stdio.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/knowledge-pad/internal/app"
	"github.com/bull/knowledge-pad/internal/config"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "kpad",
		Short: "Knowledge Pad document library tool",
		Long: `CLI tool for a personal semantic search library of PDF and Markdown files.

Configuration is read from --config, $KPAD_CONFIG or ./config.yaml, then
overridden by environment variables. Common ones:
  KPAD_INDEX_BACKEND       sqlite | qdrant | memory (default: sqlite)
  KPAD_EMBEDDING_PROVIDER  hash | openai | ollama (default: hash)
  KPAD_STORAGE_BACKEND     s3 | memory (default: s3)
  OPENAI_API_KEY           OpenAI API key (openai embeddings, summaries)
  GITHUB_TOKEN             GitHub token for import-github (optional)`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config.yaml")

	root.AddCommand(
		newIngestCmd(opts),
		newSearchCmd(opts),
		newStatsCmd(opts),
		newListCmd(opts),
		newDeleteCmd(opts),
		newReindexCmd(opts),
		newImportGitHubCmd(opts),
		newServeMCPCmd(opts),
	)
	return root
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.Load(o.configPath)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}

// openApp loads configuration and opens every backend. Logs go to stderr so
// stdout stays clean for results.
func (o *rootOptions) openApp(ctx context.Context, rebuild bool) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.Build(ctx, cfg, cfg.Log.NewLogger(os.Stderr), rebuild)
}
