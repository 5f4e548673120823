// Package domain defines the documents, chunks and search results that flow
// through the ingestion and query pipelines.
package domain

import (
	"path"
	"strings"
	"time"
)

// Document is one uploaded file. It is immutable after ingestion except for
// deletion.
type Document struct {
	ID          string    // UUID generated at ingestion
	Filename    string    // Original upload filename
	StorageKey  string    // Object store key, derived from ID
	ContentType string    // "application/pdf" or "text/markdown"
	Size        int64     // Bytes stored
	PageCount   int       // Pages reported by the extractor
	ChunkCount  int       // Embedding records written to the index
	Summary     string    // Optional LLM summary
	UploadedAt  time.Time // When ingestion completed
}

// Page is one extracted page. Number starts at 1; Text may be empty.
type Page struct {
	Number int
	Text   string
}

// Chunk is a window of one page's text. Start and End are character (rune)
// offsets into the page text, End exclusive.
type Chunk struct {
	DocumentID string
	Page       int
	Index      int // Position within the page (0, 1, 2...)
	Text       string
	Start      int
	End        int
}

// ChunkMetadata is the copy of a chunk's identity stored next to its vector so
// search results render without a join back to the catalog.
type ChunkMetadata struct {
	DocumentID string
	Filename   string
	Page       int
	ChunkIndex int
	Start      int
	End        int
	Snippet    string
}

// QueryResult is one ranked search hit. It is never persisted.
type QueryResult struct {
	Rank        int     `json:"rank"`
	DocumentID  string  `json:"document_id"`
	Filename    string  `json:"filename"`
	Page        int     `json:"page"`
	ChunkIndex  int     `json:"chunk_index"`
	Snippet     string  `json:"snippet"`
	Score       float64 `json:"score"`
	DownloadURL string  `json:"download_url"`
}

// Stats are aggregate index counts.
type Stats struct {
	Documents int    `json:"documents"`
	Chunks    int    `json:"chunks"`
	Model     string `json:"model"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
}

// Content types accepted for upload.
const (
	ContentTypePDF      = "application/pdf"
	ContentTypeMarkdown = "text/markdown"
)

// ContentTypeFor maps a filename to a supported content type, or "" if the
// extension is not supported.
func ContentTypeFor(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return ContentTypePDF
	case ".md", ".markdown":
		return ContentTypeMarkdown
	}
	return ""
}

// StorageKeyFor derives the object store key from a document ID. Keys are a
// pure function of the ID and the original extension.
func StorageKeyFor(documentID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".bin"
	}
	return "documents/" + documentID + ext
}

// DownloadPath is the API path that serves a document's original bytes.
func DownloadPath(documentID string) string {
	return "/api/documents/" + documentID + "/file"
}
