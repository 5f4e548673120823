package main

import (
	"github.com/spf13/cobra"

	mcpserver "github.com/bull/knowledge-pad/internal/mcp"
)

func newServeMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve the library as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.openApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			a.Logger.Info("Starting Knowledge Pad MCP server (stdio mode)")
			return mcpserver.NewServer(a.Pipeline).Run(ctx)
		},
	}
}
