package vectorindex

import (
	"context"
	"slices"
	"sync"
)

// Memory is an in-process Index. Records are kept in insertion order, which
// is the tie-break order for equal scores.
type Memory struct {
	mu        sync.RWMutex
	dimension int
	metric    Metric
	records   []Record
}

// NewMemory creates an empty in-memory index.
func NewMemory(dimension int, metric Metric) *Memory {
	return &Memory{dimension: dimension, metric: metric}
}

func (m *Memory) Insert(ctx context.Context, records []Record) error {
	if err := checkRecords(m.dimension, records); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records = slices.DeleteFunc(m.records, func(old Record) bool { return old.ID == r.ID })
		r.Vector = slices.Clone(r.Vector)
		m.records = append(m.records, r)
	}
	return nil
}

func (m *Memory) Delete(ctx context.Context, filter Filter) error {
	if err := requireFilter(filter); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = slices.DeleteFunc(m.records, func(r Record) bool { return filter.Match(r.Metadata) })
	return nil
}

func (m *Memory) Search(ctx context.Context, query []float32, topK int, filter Filter) ([]Hit, error) {
	if err := checkDimension(m.dimension, query, "query"); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []Hit{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]Hit, 0, len(m.records))
	for _, r := range m.records {
		if !filter.Match(r.Metadata) {
			continue
		}
		hits = append(hits, Hit{ID: r.ID, Metadata: r.Metadata, Score: Similarity(m.metric, query, r.Vector)})
	}
	return rank(hits, topK), nil
}

func (m *Memory) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

func (m *Memory) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	return nil
}

func (m *Memory) Health(ctx context.Context) error { return nil }
func (m *Memory) Dimension() int                   { return m.dimension }
func (m *Memory) Metric() Metric                   { return m.metric }
func (m *Memory) Close() error                     { return nil }
