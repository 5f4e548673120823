package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// HashModel is a local deterministic model based on feature hashing of word
// tokens. It needs no weights or network and produces the same vector for the
// same text on every run, which makes it the default for a personal library
// and for tests.
type HashModel struct {
	name      string
	dimension int
	tokens    *regexp.Regexp
	stopwords map[string]struct{}
}

// NewHashModel creates a hashing model producing vectors of the given size.
func NewHashModel(name string, dimension int) *HashModel {
	if name == "" {
		name = "feature-hash-v1"
	}
	return &HashModel{
		name:      name,
		dimension: dimension,
		tokens:    regexp.MustCompile(`[\p{L}\p{N}]+`),
		stopwords: defaultStopwords(),
	}
}

// Name returns the model name.
func (m *HashModel) Name() string { return m.name }

// Dimension returns the vector length.
func (m *HashModel) Dimension() int { return m.dimension }

// Embed hashes each text independently, so results never depend on batching.
func (m *HashModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *HashModel) vector(text string) []float32 {
	counts := make(map[string]int)
	for _, tok := range m.tokens.FindAllString(strings.ToLower(text), -1) {
		if _, stop := m.stopwords[tok]; stop {
			continue
		}
		counts[tok]++
	}

	acc := make([]float64, m.dimension)
	for tok, n := range counts {
		h := fnv.New32a()
		h.Write([]byte(tok))
		sum := h.Sum32()

		idx := int(sum % uint32(m.dimension))
		weight := 1 + math.Log(float64(n))
		if (sum>>16)&1 == 1 {
			weight = -weight
		}
		acc[idx] += weight
	}

	// L2 normalize
	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	vec := make([]float32, m.dimension)
	if norm == 0 {
		return vec
	}
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by",
		"with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "its", "this", "that", "these",
		"those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into",
		"about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own",
		"same", "too", "very", "can", "will", "just", "should", "now", "what", "which", "who", "whom",
		"how", "why", "where", "when", "do", "does", "did", "i", "you", "we", "they", "he", "she",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
