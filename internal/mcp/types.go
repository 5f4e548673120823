// Package mcp exposes the document library as Model Context Protocol tools.
package mcp

import (
	"time"

	"github.com/bull/knowledge-pad/internal/domain"
)

// SearchDocumentsInput defines the input parameters for the search_documents tool.
type SearchDocumentsInput struct {
	// Query is the natural-language search query.
	Query string `json:"query" jsonschema:"the natural-language question or phrase to search for"`
	// TopK is the number of passages to return. Omit for the server default.
	TopK *int `json:"top_k,omitempty" jsonschema:"number of passages to return (server default when omitted)"`
	// Filename restricts results to one document.
	Filename string `json:"filename,omitempty" jsonschema:"only search the document with this exact filename"`
}

// SearchDocumentsOutput contains the ranked passages.
type SearchDocumentsOutput struct {
	Query        string               `json:"query"`
	Results      []domain.QueryResult `json:"results"`
	TotalResults int                  `json:"total_results"`
	// Message provides informational context (e.g., "No matching passages found").
	Message string `json:"message,omitempty"`
}

// ListDocumentsInput takes no parameters.
type ListDocumentsInput struct{}

// DocumentInfo describes one catalogued document.
type DocumentInfo struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Pages       int       `json:"pages"`
	Chunks      int       `json:"chunks"`
	Summary     string    `json:"summary,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// ListDocumentsOutput contains every document, newest first.
type ListDocumentsOutput struct {
	Documents []DocumentInfo `json:"documents"`
	Count     int            `json:"count"`
}

// StatusInput takes no parameters.
type StatusInput struct{}

// StatusOutput reports index size and configuration.
type StatusOutput struct {
	TotalDocs   int    `json:"total_docs"`
	TotalChunks int    `json:"total_chunks"`
	Model       string `json:"model"`
	Dimension   int    `json:"dimension"`
	Metric      string `json:"metric"`
	Healthy     bool   `json:"healthy"`
	// LastUpload is the newest document's upload time (RFC 3339), empty when
	// the library is empty.
	LastUpload string `json:"last_upload,omitempty"`
}

func documentInfo(d domain.Document) DocumentInfo {
	return DocumentInfo{
		ID:          d.ID,
		Filename:    d.Filename,
		ContentType: d.ContentType,
		Size:        d.Size,
		Pages:       d.PageCount,
		Chunks:      d.ChunkCount,
		Summary:     d.Summary,
		UploadedAt:  d.UploadedAt,
	}
}
