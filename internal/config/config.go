// Package config holds the per-deployment configuration passed into every
// component at construction.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bull/knowledge-pad/internal/domain"
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AuthConfig holds the basic-auth credentials guarding the API.
type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// LogConfig selects slog level and handler format (text or json).
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ChunkingConfig configures the sliding window chunker.
type ChunkingConfig struct {
	ChunkSize     int `yaml:"chunk_size"`
	Overlap       int `yaml:"overlap"`
	MinChunkChars int `yaml:"min_chunk_chars"`
}

// EmbeddingConfig selects the embedding model and its loading source.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // hash | openai | ollama
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
}

// QdrantConfig contains connection details for a Qdrant vector index.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
	UseTLS     bool   `yaml:"use_tls"`
}

// IndexConfig selects and configures the vector index backend.
type IndexConfig struct {
	Backend string       `yaml:"backend"` // sqlite | qdrant | memory
	Path    string       `yaml:"path"`
	Metric  string       `yaml:"metric"` // cosine | l2
	Qdrant  QdrantConfig `yaml:"qdrant"`
}

// S3Config contains connection details for an S3-compatible bucket.
// Setting AccountID targets Cloudflare R2.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccountID string `yaml:"account_id"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// StorageConfig selects the object store backend.
type StorageConfig struct {
	Backend       string        `yaml:"backend"` // s3 | memory
	S3            S3Config      `yaml:"s3"`
	PresignExpiry time.Duration `yaml:"presign_expiry"`
}

// CatalogConfig locates the document metadata database.
type CatalogConfig struct {
	Path string `yaml:"path"` // empty or ":memory:" keeps the catalog in memory
}

// SearchConfig bounds query result counts and filters weak hits.
type SearchConfig struct {
	TopKDefault   int     `yaml:"top_k_default"`
	TopKMax       int     `yaml:"top_k_max"`
	MinSimilarity float64 `yaml:"min_similarity"`
}

// UploadConfig limits what the ingestion pipeline accepts.
type UploadConfig struct {
	MaxBytes          int64    `yaml:"max_bytes"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

// SummariesConfig toggles LLM document summaries at ingestion.
type SummariesConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
}

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Storage   StorageConfig   `yaml:"storage"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Search    SearchConfig    `yaml:"search"`
	Upload    UploadConfig    `yaml:"upload"`
	Summaries SummariesConfig `yaml:"summaries"`
}

// Default dimensions per embedding provider.
const (
	DefaultHashDimension   = 384
	DefaultOpenAIDimension = 1536
	DefaultOllamaDimension = 768
)

// Load reads a config from path, applies environment overrides and defaults,
// and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidConfig, path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// defaults only
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads the file named by KPAD_CONFIG, falling back to
// ./config.yaml. It returns the path that was consulted.
func LoadDefault() (*Config, string, error) {
	path := getEnv("KPAD_CONFIG", "config.yaml")
	cfg, err := Load(path)
	return cfg, path, err
}

// Default returns the built-in defaults without reading a file or the
// environment. The s3 storage backend still needs an endpoint.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Addr = ":" + v
	}
	cfg.Server.Addr = getEnv("KPAD_SERVER_ADDR", cfg.Server.Addr)
	cfg.Auth.Username = getEnv("ADMIN_USERNAME", cfg.Auth.Username)
	cfg.Auth.Password = getEnv("ADMIN_PASSWORD", cfg.Auth.Password)
	cfg.Log.Level = getEnv("KPAD_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("KPAD_LOG_FORMAT", cfg.Log.Format)

	cfg.Embedding.Provider = getEnv("KPAD_EMBEDDING_PROVIDER", cfg.Embedding.Provider)
	cfg.Embedding.Model = getEnv("KPAD_EMBEDDING_MODEL", cfg.Embedding.Model)
	cfg.Embedding.Dimension = getEnvInt("KPAD_EMBEDDING_DIMENSION", cfg.Embedding.Dimension)
	if cfg.Embedding.Provider == "openai" {
		cfg.Embedding.APIKey = getEnv("OPENAI_API_KEY", cfg.Embedding.APIKey)
	}
	if v := os.Getenv("KPAD_SUMMARIES"); v != "" {
		cfg.Summaries.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	cfg.Summaries.APIKey = getEnv("OPENAI_API_KEY", cfg.Summaries.APIKey)

	cfg.Index.Backend = getEnv("KPAD_INDEX_BACKEND", cfg.Index.Backend)
	cfg.Index.Path = getEnv("KPAD_INDEX_PATH", cfg.Index.Path)
	cfg.Index.Metric = getEnv("KPAD_INDEX_METRIC", cfg.Index.Metric)
	cfg.Index.Qdrant.Host = getEnv("QDRANT_HOST", cfg.Index.Qdrant.Host)
	cfg.Index.Qdrant.Port = getEnvInt("QDRANT_PORT", cfg.Index.Qdrant.Port)
	cfg.Index.Qdrant.APIKey = getEnv("QDRANT_API_KEY", cfg.Index.Qdrant.APIKey)

	cfg.Storage.Backend = getEnv("KPAD_STORAGE_BACKEND", cfg.Storage.Backend)
	cfg.Storage.S3.Endpoint = getEnv("S3_ENDPOINT", cfg.Storage.S3.Endpoint)
	cfg.Storage.S3.Bucket = getEnv("S3_BUCKET", cfg.Storage.S3.Bucket)
	cfg.Storage.S3.AccountID = getEnv("CLOUDFLARE_ACCOUNT_ID", cfg.Storage.S3.AccountID)
	cfg.Storage.S3.AccessKey = getEnv("R2_ACCESS_KEY_ID", cfg.Storage.S3.AccessKey)
	cfg.Storage.S3.SecretKey = getEnv("R2_SECRET_ACCESS_KEY", cfg.Storage.S3.SecretKey)

	cfg.Catalog.Path = getEnv("KPAD_CATALOG_PATH", cfg.Catalog.Path)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Auth.Username == "" {
		cfg.Auth.Username = "admin"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 500
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = 50
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "hash"
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 64
	}
	switch cfg.Embedding.Provider {
	case "hash":
		if cfg.Embedding.Model == "" {
			cfg.Embedding.Model = "feature-hash-v1"
		}
		if cfg.Embedding.Dimension == 0 {
			cfg.Embedding.Dimension = DefaultHashDimension
		}
	case "openai":
		if cfg.Embedding.Model == "" {
			cfg.Embedding.Model = "text-embedding-3-small"
		}
		if cfg.Embedding.Dimension == 0 {
			cfg.Embedding.Dimension = DefaultOpenAIDimension
		}
	case "ollama":
		if cfg.Embedding.BaseURL == "" {
			cfg.Embedding.BaseURL = "http://localhost:11434"
		}
		if cfg.Embedding.Model == "" {
			cfg.Embedding.Model = "nomic-embed-text"
		}
		if cfg.Embedding.Dimension == 0 {
			cfg.Embedding.Dimension = DefaultOllamaDimension
		}
	}

	if cfg.Index.Backend == "" {
		cfg.Index.Backend = "sqlite"
	}
	if cfg.Index.Path == "" {
		cfg.Index.Path = "data/index.db"
	}
	if cfg.Index.Metric == "" {
		cfg.Index.Metric = "cosine"
	}
	if cfg.Index.Qdrant.Host == "" {
		cfg.Index.Qdrant.Host = "localhost"
	}
	if cfg.Index.Qdrant.Port == 0 {
		cfg.Index.Qdrant.Port = 6334
	}
	if cfg.Index.Qdrant.Collection == "" {
		cfg.Index.Qdrant.Collection = "knowledge_documents"
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "s3"
	}
	if cfg.Storage.S3.AccountID != "" && cfg.Storage.S3.Endpoint == "" {
		// Cloudflare R2 is S3-compatible behind a per-account endpoint
		cfg.Storage.S3.Endpoint = cfg.Storage.S3.AccountID + ".r2.cloudflarestorage.com"
		cfg.Storage.S3.UseSSL = true
		if cfg.Storage.S3.Region == "" {
			cfg.Storage.S3.Region = "auto"
		}
	}
	if cfg.Storage.S3.Bucket == "" {
		cfg.Storage.S3.Bucket = "knowledge-pad-pdfs"
	}
	if cfg.Storage.PresignExpiry == 0 {
		cfg.Storage.PresignExpiry = time.Hour
	}

	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = "data/library.db"
	}

	if cfg.Search.TopKDefault == 0 {
		cfg.Search.TopKDefault = 10
	}
	if cfg.Search.TopKMax == 0 {
		cfg.Search.TopKMax = 50
	}

	if cfg.Upload.MaxBytes == 0 {
		cfg.Upload.MaxBytes = 50 << 20
	}
	if len(cfg.Upload.AllowedExtensions) == 0 {
		cfg.Upload.AllowedExtensions = []string{".pdf", ".md"}
	}
	for i, ext := range cfg.Upload.AllowedExtensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Upload.AllowedExtensions[i] = ext
	}

	if cfg.Summaries.Model == "" {
		cfg.Summaries.Model = "gpt-4o-mini"
	}
}

// Validate reports the first unusable option, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if c.Chunking.ChunkSize <= 0 || c.Chunking.Overlap <= 0 {
		return invalid("chunk_size (%d) and overlap (%d) must be positive", c.Chunking.ChunkSize, c.Chunking.Overlap)
	}
	if c.Chunking.Overlap >= c.Chunking.ChunkSize {
		return invalid("overlap (%d) must be smaller than chunk_size (%d)", c.Chunking.Overlap, c.Chunking.ChunkSize)
	}
	if c.Chunking.MinChunkChars < 0 {
		return invalid("min_chunk_chars must not be negative")
	}

	switch c.Embedding.Provider {
	case "hash", "openai", "ollama":
	default:
		return invalid("unknown embedding provider %q", c.Embedding.Provider)
	}
	if c.Embedding.Dimension <= 0 {
		return invalid("embedding dimension must be positive")
	}
	if c.Embedding.BatchSize <= 0 {
		return invalid("embedding batch_size must be positive")
	}

	switch c.Index.Backend {
	case "sqlite", "qdrant", "memory":
	default:
		return invalid("unknown index backend %q", c.Index.Backend)
	}
	switch c.Index.Metric {
	case "cosine", "l2":
	default:
		return invalid("unknown metric %q (want cosine or l2)", c.Index.Metric)
	}

	switch c.Storage.Backend {
	case "s3", "memory":
	default:
		return invalid("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "s3" && c.Storage.S3.Endpoint == "" {
		return invalid("storage.s3.endpoint or storage.s3.account_id is required for the s3 backend")
	}

	if c.Search.TopKDefault <= 0 || c.Search.TopKMax <= 0 {
		return invalid("top_k_default and top_k_max must be positive")
	}
	if c.Search.TopKDefault > c.Search.TopKMax {
		return invalid("top_k_default (%d) exceeds top_k_max (%d)", c.Search.TopKDefault, c.Search.TopKMax)
	}
	if c.Search.MinSimilarity < -1 || c.Search.MinSimilarity > 1 {
		return invalid("min_similarity must be within [-1, 1]")
	}

	if c.Upload.MaxBytes <= 0 {
		return invalid("upload max_bytes must be positive")
	}
	if c.Summaries.Enabled && c.Summaries.APIKey == "" {
		return invalid("summaries need an OpenAI API key (OPENAI_API_KEY)")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}
