package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/knowledge-pad/internal/pipeline"
)

// makeSearchHandler creates the search_documents tool handler.
func makeSearchHandler(library Library) func(
	context.Context, *mcp.CallToolRequest, SearchDocumentsInput,
) (*mcp.CallToolResult, SearchDocumentsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchDocumentsInput) (
		*mcp.CallToolResult, SearchDocumentsOutput, error,
	) {
		resp, err := library.Search(ctx, pipeline.SearchRequest{
			Query:    input.Query,
			TopK:     input.TopK,
			Filename: input.Filename,
		})
		if err != nil {
			return nil, SearchDocumentsOutput{}, fmt.Errorf("search failed: %w", err)
		}

		out := SearchDocumentsOutput{
			Query:        resp.Query,
			Results:      resp.Results,
			TotalResults: resp.TotalResults,
		}
		if len(out.Results) == 0 {
			out.Message = "No matching passages found. Try broader search terms or upload more documents."
		}
		return nil, out, nil
	}
}

// makeListHandler creates the list_documents tool handler.
func makeListHandler(library Library) func(
	context.Context, *mcp.CallToolRequest, ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListDocumentsInput) (
		*mcp.CallToolResult, ListDocumentsOutput, error,
	) {
		docs, err := library.List(ctx)
		if err != nil {
			return nil, ListDocumentsOutput{}, fmt.Errorf("failed to list documents: %w", err)
		}

		out := ListDocumentsOutput{
			Documents: make([]DocumentInfo, 0, len(docs)),
			Count:     len(docs),
		}
		for _, d := range docs {
			out.Documents = append(out.Documents, documentInfo(d))
		}
		return nil, out, nil
	}
}

// makeStatusHandler creates the get_index_status tool handler. An unreachable
// index is reported as unhealthy rather than as a tool error.
func makeStatusHandler(library Library) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		if err := library.Health(ctx); err != nil {
			return nil, StatusOutput{Healthy: false}, nil
		}

		stats, err := library.Stats(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("failed to read index stats: %w", err)
		}

		out := StatusOutput{
			TotalDocs:   stats.Documents,
			TotalChunks: stats.Chunks,
			Model:       stats.Model,
			Dimension:   stats.Dimension,
			Metric:      stats.Metric,
			Healthy:     true,
		}

		docs, err := library.List(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("failed to list documents: %w", err)
		}
		if len(docs) > 0 {
			out.LastUpload = docs[0].UploadedAt.UTC().Format(time.RFC3339)
		}
		return nil, out, nil
	}
}
