package metadata

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

func newTestGenerator(maxTokens int) *Generator {
	return &Generator{maxTokens: maxTokens, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// TestParseSummary verifies JSON parsing of valid response.
func TestParseSummary(t *testing.T) {
	s, err := parseSummary(`{"summary": " Test summary ", "topics": ["Cells", "Energy"]}`)
	if err != nil {
		t.Fatalf("Failed to parse valid JSON response: %v", err)
	}
	if s.Summary != "Test summary" {
		t.Errorf("Expected summary 'Test summary', got '%s'", s.Summary)
	}
	if len(s.Topics) != 2 || s.Topics[0] != "Cells" {
		t.Errorf("Unexpected topics %v", s.Topics)
	}
}

func TestParseSummary_Invalid(t *testing.T) {
	if _, err := parseSummary("not json"); err == nil {
		t.Error("Expected error for non-JSON content")
	}
}

// TestTruncateContent verifies truncation works correctly for very long content.
func TestTruncateContent(t *testing.T) {
	g := newTestGenerator(DefaultMaxTokens)

	longContent := strings.Repeat("This is a test content. ", 4000)
	truncated := g.truncateContent(longContent)

	expectedMaxChars := DefaultMaxTokens * 4
	if len(truncated) != expectedMaxChars {
		t.Errorf("Expected truncated length %d, got %d", expectedMaxChars, len(truncated))
	}
	if !strings.HasPrefix(longContent, truncated) {
		t.Error("Truncated content should be a prefix of original content")
	}
}

// TestTruncateContent_Short verifies short content is not truncated.
func TestTruncateContent_Short(t *testing.T) {
	g := newTestGenerator(DefaultMaxTokens)

	shortContent := strings.Repeat("Short. ", 140)
	if g.truncateContent(shortContent) != shortContent {
		t.Error("Short content should not be truncated")
	}
}

func TestTruncateContent_RuneBoundary(t *testing.T) {
	g := newTestGenerator(1)

	// byte 4 falls inside the two-byte é
	content := "aaaé" + strings.Repeat("x", 10)
	truncated := g.truncateContent(content)
	if truncated != "aaa" {
		t.Errorf("Expected 'aaa', got %q", truncated)
	}
}

func TestSummarize(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 0,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"summary\": \"A primer on cell biology.\", \"topics\": [\"cells\"]}"}
			}]
		}`)
	}))
	defer srv.Close()

	client := openai.NewClient(option.WithAPIKey("test"), option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	g := NewGenerator(&client, "")

	summary, err := g.Summarize(context.Background(), "biology.pdf", "The mitochondria is the powerhouse of the cell.")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary != "A primer on cell biology." {
		t.Errorf("Unexpected summary %q", summary)
	}
	if !strings.Contains(gotBody, "biology.pdf") || !strings.Contains(gotBody, DefaultModel) {
		t.Errorf("Request body missing filename or model: %s", gotBody)
	}
}

func TestSummarize_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "boom"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client := openai.NewClient(option.WithAPIKey("test"), option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	g := NewGenerator(&client, "gpt-4o-mini")

	if _, err := g.Summarize(context.Background(), "a.md", "text"); err == nil {
		t.Error("Expected error from failing server")
	}
}

func TestNewOpenAIGenerator_NoKey(t *testing.T) {
	if _, err := NewOpenAIGenerator("", "", ""); err == nil {
		t.Error("Expected error without API key")
	}
}
