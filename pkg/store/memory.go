package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of the Store interface
type MemoryStore struct {
	data map[string]*Document
	mu   sync.RWMutex
}

// NewMemoryStore creates a new in-memory document store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]*Document),
	}
}

// Get retrieves a copy of the document stored under id
func (m *MemoryStore) Get(ctx context.Context, id string) (*Document, error) {
	m.mu.RLock()
	doc, exists := m.data[id]
	m.mu.RUnlock()

	if !exists {
		return nil, ErrNotFound
	}
	return copyDocument(doc), nil
}

// Insert creates or replaces the document if its revision matches
func (m *MemoryStore) Insert(ctx context.Context, doc *Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.data[doc.ID]
	var currentRev string
	if exists {
		currentRev = current.Rev
	}
	if err := checkRevision(exists, currentRev, doc.Rev); err != nil {
		return "", err
	}

	stored := copyDocument(doc)
	stored.Rev = nextRevision(currentRev)
	m.data[doc.ID] = stored

	return stored.Rev, nil
}

// Len returns the number of stored documents
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func copyDocument(doc *Document) *Document {
	body := make([]byte, len(doc.Body))
	copy(body, doc.Body)
	return &Document{
		ID:   doc.ID,
		Rev:  doc.Rev,
		Body: body,
	}
}
