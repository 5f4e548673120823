// Package metadata produces LLM-written document summaries stored in the
// catalog at ingestion.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultMaxTokens is the maximum content length before truncation (in tokens).
const DefaultMaxTokens = 4000

// DefaultModel is used when no chat model is configured.
const DefaultModel = "gpt-4o-mini"

// DocumentSummary is the JSON object the model is asked to return.
type DocumentSummary struct {
	Summary string   `json:"summary"`
	Topics  []string `json:"topics"`
}

// Generator writes document summaries with an OpenAI chat model.
type Generator struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    *slog.Logger
}

// NewGenerator creates a summary generator with the given OpenAI client.
// Optional maxTokens parameter sets truncation limit (defaults to DefaultMaxTokens).
func NewGenerator(client *openai.Client, model string, maxTokens ...int) *Generator {
	limit := DefaultMaxTokens
	if len(maxTokens) > 0 && maxTokens[0] > 0 {
		limit = maxTokens[0]
	}
	if model == "" {
		model = DefaultModel
	}
	return &Generator{
		client:    client,
		model:     model,
		maxTokens: limit,
		logger:    slog.Default(),
	}
}

// NewOpenAIGenerator builds its own client from an API key. baseURL is
// optional.
func NewOpenAIGenerator(apiKey, baseURL, model string) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY not set")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return NewGenerator(&client, model), nil
}

// Summarize returns a one or two sentence description of the document.
func (g *Generator) Summarize(ctx context.Context, filename, text string) (string, error) {
	s, err := g.GenerateSummary(ctx, filename, text)
	if err != nil {
		return "", err
	}
	return s.Summary, nil
}

// GenerateSummary asks the model for a summary and topic list.
func (g *Generator) GenerateSummary(ctx context.Context, filename, text string) (*DocumentSummary, error) {
	truncated := g.truncateContent(text)

	prompt := fmt.Sprintf(`Summarize this document for a personal knowledge library.
Provide:
1. A concise summary (1-2 sentences) capturing the main topic
2. Up to five key topics it covers

Filename: %s

Document content:
%s

Respond in JSON format:
{"summary": "Brief description of the document", "topics": ["Topic1", "Topic2"]}`, filename, truncated)

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(g.model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	return parseSummary(resp.Choices[0].Message.Content)
}

func parseSummary(content string) (*DocumentSummary, error) {
	var s DocumentSummary
	if err := json.Unmarshal([]byte(content), &s); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	s.Summary = strings.TrimSpace(s.Summary)
	return &s, nil
}

// truncateContent truncates content to fit within token limits.
// Uses rough estimate of 4 characters per token and never splits a rune.
func (g *Generator) truncateContent(content string) string {
	maxChars := g.maxTokens * 4

	if len(content) <= maxChars {
		return content
	}

	g.logger.Warn("Truncating content for summary",
		"from_chars", len(content), "to_chars", maxChars, "estimated_tokens", g.maxTokens)

	cut := maxChars
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}
