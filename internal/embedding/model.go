// Package embedding turns text into fixed-dimension vectors.
//
// An Embedder owns a lazily loaded Model. The model is loaded on first use,
// at most once at a time, and kept for the lifetime of the Embedder. A failed
// load is not remembered: the next call tries again.
package embedding

import "context"

// Model is a loaded embedding model.
type Model interface {
	// Name identifies the model and version, e.g. "text-embedding-3-small".
	Name() string

	// Dimension is the length of every vector the model produces.
	Dimension() int

	// Embed returns one vector per input, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Loader loads a model. It may be slow (network handshake, weights) and is
// called again after a failure.
type Loader func(ctx context.Context) (Model, error)

// Static returns a Loader that always yields m.
func Static(m Model) Loader {
	return func(context.Context) (Model, error) { return m, nil }
}
