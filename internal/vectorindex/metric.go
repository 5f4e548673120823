package vectorindex

import (
	"fmt"
	"math"
	"strings"

	"github.com/bull/knowledge-pad/internal/domain"
)

// Metric selects how vectors are compared.
type Metric string

const (
	Cosine Metric = "cosine"
	L2     Metric = "l2"
)

// ParseMetric accepts "cosine", "l2" or "euclidean".
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cosine", "":
		return Cosine, nil
	case "l2", "euclidean", "euclid":
		return L2, nil
	}
	return "", fmt.Errorf("%w: unknown metric %q", domain.ErrInvalidConfig, s)
}

// Similarity compares two vectors of equal length. Cosine returns cosine
// similarity in [-1, 1]; L2 returns 1/(1+distance) in (0, 1].
func Similarity(m Metric, a, b []float32) float64 {
	if m == L2 {
		return FromDistance(euclidean(a, b))
	}
	return cosine(a, b)
}

// FromDistance converts an L2 distance into a similarity.
func FromDistance(d float64) float64 {
	return 1 / (1 + d)
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func euclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
