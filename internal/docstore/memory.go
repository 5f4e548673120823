package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bull/knowledge-pad/internal/domain"
)

// Memory is an in-process catalog.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]domain.Document
	seq  map[string]int // save order, newest-first tie break on equal timestamps
	next int
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty catalog.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]domain.Document), seq: make(map[string]int)}
}

func (m *Memory) Save(ctx context.Context, doc domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc
	m.next++
	m.seq[doc.ID] = m.next
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return domain.Document{}, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	return doc, nil
}

func (m *Memory) List(ctx context.Context) ([]domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]domain.Document, 0, len(m.docs))
	for _, doc := range m.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].UploadedAt.After(docs[j].UploadedAt)
		}
		return m.seq[docs[i].ID] > m.seq[docs[j].ID]
	})
	return docs, nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	delete(m.docs, id)
	delete(m.seq, id)
	return nil
}

func (m *Memory) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs), nil
}

func (m *Memory) Close() error { return nil }
