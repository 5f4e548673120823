package domain

// IngestState is a step of the per-upload ingestion state machine.
type IngestState string

const (
	StateReceived  IngestState = "RECEIVED"
	StateExtracted IngestState = "EXTRACTED"
	StateChunked   IngestState = "CHUNKED"
	StateEmbedded  IngestState = "EMBEDDED"
	StateIndexed   IngestState = "INDEXED"
	StateStored    IngestState = "STORED"
	StateComplete  IngestState = "COMPLETE"
	StateFailed    IngestState = "FAILED"
)

// Terminal reports whether no further transition is possible.
func (s IngestState) Terminal() bool {
	return s == StateComplete || s == StateFailed
}
