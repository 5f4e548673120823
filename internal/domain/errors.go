package domain

import "errors"

// Error taxonomy shared by every component. Components wrap these with
// fmt.Errorf("%w: ...") and callers classify with errors.Is.
var (
	// ErrValidation indicates bad caller input: empty query, oversized or
	// non-PDF upload, bad filter. Reported to the caller, no state change.
	ErrValidation = errors.New("validation error")

	// ErrInvalidConfig indicates an unusable configuration value.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrExtraction indicates the uploaded file could not be parsed.
	ErrExtraction = errors.New("extraction error")

	// ErrModelUnavailable indicates the embedding model could not be loaded.
	// The failure is not cached; the next call retries the load.
	ErrModelUnavailable = errors.New("embedding model unavailable")

	// ErrDimensionMismatch indicates a vector whose length disagrees with the
	// index dimension. Changing the model requires a full reindex.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrStorage indicates the object store or catalog could not be reached.
	ErrStorage = errors.New("storage error")

	// ErrNotFound indicates a requested document or object does not exist.
	ErrNotFound = errors.New("not found")
)
