package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bull/knowledge-pad/internal/domain"
	"github.com/bull/knowledge-pad/internal/vectorindex"
)

// SearchRequest is a natural-language query. A nil TopK uses the configured
// default; any value is capped at the configured maximum.
type SearchRequest struct {
	Query    string
	TopK     *int
	Filename string // optional exact-match filter
}

// SearchResponse is the ranked result list.
type SearchResponse struct {
	Query        string               `json:"query"`
	Results      []domain.QueryResult `json:"results"`
	TotalResults int                  `json:"total_results"`
	SearchTime   float64              `json:"search_time"` // seconds
}

// TopK is a convenience for building a SearchRequest.
func TopK(n int) *int { return &n }

// Search embeds the query, looks up its nearest chunks and attaches the
// source filename and download reference to each hit. An empty index, a
// top_k of zero or a threshold nothing clears yields an empty list.
func (p *Pipeline) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	start := time.Now()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}

	topK := p.opts.Search.TopKDefault
	if req.TopK != nil {
		topK = *req.TopK
	}
	if topK < 0 {
		return nil, fmt.Errorf("%w: top_k must not be negative", domain.ErrValidation)
	}
	if limit := p.opts.Search.TopKMax; limit > 0 && topK > limit {
		topK = limit
	}

	resp := &SearchResponse{Query: query, Results: []domain.QueryResult{}}
	if topK == 0 {
		resp.SearchTime = time.Since(start).Seconds()
		return resp, nil
	}

	vec, err := p.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := p.index.Search(ctx, vec, topK, vectorindex.Filter{Filename: req.Filename})
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	threshold := p.opts.Search.MinSimilarity
	for _, h := range hits {
		if threshold != 0 && h.Score < threshold {
			continue
		}
		resp.Results = append(resp.Results, domain.QueryResult{
			Rank:        len(resp.Results) + 1,
			DocumentID:  h.Metadata.DocumentID,
			Filename:    h.Metadata.Filename,
			Page:        h.Metadata.Page,
			ChunkIndex:  h.Metadata.ChunkIndex,
			Snippet:     h.Metadata.Snippet,
			Score:       h.Score,
			DownloadURL: domain.DownloadPath(h.Metadata.DocumentID),
		})
	}

	resp.TotalResults = len(resp.Results)
	resp.SearchTime = time.Since(start).Seconds()
	p.logger.Debug("Search complete", "query", query, "top_k", topK, "results", resp.TotalResults)
	return resp, nil
}
