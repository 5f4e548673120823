package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/knowledge-pad/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("KPAD_STORAGE_BACKEND", "memory")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Chunking.ChunkSize)
	assert.Equal(t, 50, cfg.Chunking.Overlap)
	assert.Equal(t, "hash", cfg.Embedding.Provider)
	assert.Equal(t, DefaultHashDimension, cfg.Embedding.Dimension)
	assert.Equal(t, "sqlite", cfg.Index.Backend)
	assert.Equal(t, "cosine", cfg.Index.Metric)
	assert.Equal(t, 10, cfg.Search.TopKDefault)
	assert.Equal(t, 50, cfg.Search.TopKMax)
	assert.Equal(t, int64(50<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, []string{".pdf", ".md"}, cfg.Upload.AllowedExtensions)
	assert.Equal(t, time.Hour, cfg.Storage.PresignExpiry)
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
chunking:
  chunk_size: 200
  overlap: 20
embedding:
  provider: openai
index:
  backend: qdrant
  metric: l2
storage:
  backend: memory
  presign_expiry: 15m
search:
  top_k_default: 3
  top_k_max: 7
  min_similarity: 0.25
upload:
  allowed_extensions: [PDF]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.Chunking.ChunkSize)
	assert.Equal(t, 20, cfg.Chunking.Overlap)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, DefaultOpenAIDimension, cfg.Embedding.Dimension)
	assert.Equal(t, "qdrant", cfg.Index.Backend)
	assert.Equal(t, "l2", cfg.Index.Metric)
	assert.Equal(t, 15*time.Minute, cfg.Storage.PresignExpiry)
	assert.Equal(t, 3, cfg.Search.TopKDefault)
	assert.InDelta(t, 0.25, cfg.Search.MinSimilarity, 1e-9)
	assert.Equal(t, []string{".pdf"}, cfg.Upload.AllowedExtensions)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "acct123")
	t.Setenv("R2_ACCESS_KEY_ID", "ak")
	t.Setenv("R2_SECRET_ACCESS_KEY", "sk")
	t.Setenv("ADMIN_PASSWORD", "hunter2")
	t.Setenv("PORT", "9090")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "acct123.r2.cloudflarestorage.com", cfg.Storage.S3.Endpoint)
	assert.Equal(t, "auto", cfg.Storage.S3.Region)
	assert.True(t, cfg.Storage.S3.UseSSL)
	assert.Equal(t, "ak", cfg.Storage.S3.AccessKey)
	assert.Equal(t, "hunter2", cfg.Auth.Password)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"overlap equals chunk size", func(c *Config) { c.Chunking.Overlap = c.Chunking.ChunkSize }},
		{"overlap exceeds chunk size", func(c *Config) { c.Chunking.Overlap = c.Chunking.ChunkSize + 1 }},
		{"negative chunk size", func(c *Config) { c.Chunking.ChunkSize = -1 }},
		{"negative overlap", func(c *Config) { c.Chunking.Overlap = -5 }},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "bert" }},
		{"unknown metric", func(c *Config) { c.Index.Metric = "dot" }},
		{"unknown backend", func(c *Config) { c.Index.Backend = "faiss" }},
		{"default above max", func(c *Config) { c.Search.TopKDefault = c.Search.TopKMax + 1 }},
		{"similarity out of range", func(c *Config) { c.Search.MinSimilarity = 2 }},
		{"s3 without endpoint", func(c *Config) { c.Storage.Backend = "s3"; c.Storage.S3.Endpoint = "" }},
		{"summaries without key", func(c *Config) { c.Summaries.Enabled = true; c.Summaries.APIKey = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Storage.Backend = "memory"
			require.NoError(t, cfg.Validate())

			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), domain.ErrInvalidConfig)
		})
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "debug", Format: "json"}.NewLogger(&buf)
	logger.Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}
