// Package api serves the document library over HTTP: upload, search, stats,
// document management and downloads behind basic auth, plus an
// unauthenticated health check.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/bull/knowledge-pad/internal/domain"
	"github.com/bull/knowledge-pad/internal/pipeline"
)

// Library is the pipeline surface the handlers use.
type Library interface {
	Ingest(ctx context.Context, up pipeline.Upload) (*pipeline.IngestResult, error)
	Search(ctx context.Context, req pipeline.SearchRequest) (*pipeline.SearchResponse, error)
	Stats(ctx context.Context) (domain.Stats, error)
	List(ctx context.Context) ([]domain.Document, error)
	Get(ctx context.Context, id string) (domain.Document, error)
	Delete(ctx context.Context, id string) error
	Open(ctx context.Context, id string) (domain.Document, []byte, error)
	PresignedURL(ctx context.Context, id string) (string, error)
	Health(ctx context.Context) error
}

// Options configure the HTTP surface.
type Options struct {
	Username string
	Password string // empty disables basic auth
	// MaxUploadBytes bounds the file part of an upload.
	MaxUploadBytes int64
}

// Server holds the handlers' dependencies.
type Server struct {
	library Library
	opts    Options
	logger  *slog.Logger
	now     func() time.Time
}

// New creates the API server. A nil logger uses slog.Default().
func New(library Library, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20
	}
	return &Server{library: library, opts: opts, logger: logger, now: time.Now}
}

// Register mounts every route on mux. /health stays public; the rest go
// through basic auth.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", NewHealthHandler(s.library))

	auth := func(h http.HandlerFunc) http.Handler {
		return s.logRequests(BasicAuth(s.opts.Username, s.opts.Password, h))
	}
	mux.Handle("GET /{$}", auth(NewLandingHandler()))
	mux.Handle("POST /api/upload", auth(s.handleUpload))
	mux.Handle("GET /api/search", auth(s.handleSearch))
	mux.Handle("POST /api/search", auth(s.handleSearch))
	mux.Handle("GET /api/stats", auth(s.handleStats))
	mux.Handle("GET /api/documents", auth(s.handleListDocuments))
	mux.Handle("GET /api/documents/{id}", auth(s.handleGetDocument))
	mux.Handle("DELETE /api/documents/{id}", auth(s.handleDeleteDocument))
	mux.Handle("GET /api/documents/{id}/file", auth(s.handleDownload))
}

// Handler returns a ServeMux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("HTTP request",
			"method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}
