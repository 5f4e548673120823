package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bull/knowledge-pad/internal/domain"
	"github.com/bull/knowledge-pad/internal/pipeline"
)

// multipartOverhead leaves room for boundaries and headers around the file.
const multipartOverhead = 1 << 20

// DocumentView is the JSON form of a catalogued document.
type DocumentView struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Pages       int       `json:"pages"`
	Chunks      int       `json:"chunks"`
	Summary     string    `json:"summary,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
	DownloadURL string    `json:"download_url"`
}

func viewOf(d domain.Document) DocumentView {
	return DocumentView{
		ID:          d.ID,
		Filename:    d.Filename,
		ContentType: d.ContentType,
		Size:        d.Size,
		Pages:       d.PageCount,
		Chunks:      d.ChunkCount,
		Summary:     d.Summary,
		UploadedAt:  d.UploadedAt,
		DownloadURL: domain.DownloadPath(d.ID),
	}
}

// UploadResponse reports a completed ingestion.
type UploadResponse struct {
	Document   DocumentView `json:"document"`
	State      string       `json:"state"`
	DurationMS int64        `json:"duration_ms"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrValidation, s.opts.MaxUploadBytes))
			return
		}
		s.writeError(w, r, fmt.Errorf("%w: multipart field \"file\" is required", domain.ErrValidation))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: read upload: %v", domain.ErrValidation, err))
		return
	}

	res, err := s.library.Ingest(r.Context(), pipeline.Upload{Filename: header.Filename, Data: data})
	if err != nil {
		body := ErrorResponse{Error: err.Error()}
		if res != nil {
			body.FailedAt = string(res.FailedAt)
		}
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("Upload failed", "filename", header.Filename, "error", err)
		}
		writeJSON(w, status, body)
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{
		Document:   viewOf(res.Document),
		State:      string(res.State),
		DurationMS: res.Duration.Milliseconds(),
	})
}

// searchBody is the POST form of a search. pdf_filter is accepted as an
// alias of filename.
type searchBody struct {
	Query     string `json:"query"`
	TopK      *int   `json:"top_k"`
	Filename  string `json:"filename"`
	PDFFilter string `json:"pdf_filter"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.writeError(w, r, fmt.Errorf("%w: invalid JSON body: %v", domain.ErrValidation, err))
			return
		}
	} else {
		q := r.URL.Query()
		body.Query = q.Get("query")
		if body.Query == "" {
			body.Query = q.Get("q")
		}
		body.Filename = q.Get("filename")
		body.PDFFilter = q.Get("pdf_filter")
		if v := q.Get("top_k"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				s.writeError(w, r, fmt.Errorf("%w: top_k must be an integer", domain.ErrValidation))
				return
			}
			body.TopK = &n
		}
	}
	if body.Filename == "" {
		body.Filename = body.PDFFilter
	}

	resp, err := s.library.Search(r.Context(), pipeline.SearchRequest{
		Query:    body.Query,
		TopK:     body.TopK,
		Filename: strings.TrimSpace(body.Filename),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.library.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// DocumentList is the body of GET /api/documents.
type DocumentList struct {
	Documents []DocumentView `json:"documents"`
	Count     int            `json:"count"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.library.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := DocumentList{Documents: make([]DocumentView, 0, len(docs)), Count: len(docs)}
	for _, d := range docs {
		out.Documents = append(out.Documents, viewOf(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.library.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(doc))
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.library.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDownload redirects to a presigned URL when the object store offers
// one and streams the stored bytes otherwise.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	url, err := s.library.PresignedURL(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if url != "" {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	doc, data, err := s.library.Open(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
