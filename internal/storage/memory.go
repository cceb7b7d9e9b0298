package storage

import (
	"context"
	"sync"
)

// Memory keeps collections in a map. Used by tests and ephemeral runs.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, collection string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[collection]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(doc))
	copy(out, doc)
	return out, nil
}

func (m *Memory) Save(_ context.Context, collection string, data []byte) error {
	doc := make([]byte, len(data))
	copy(doc, data)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[collection] = doc
	return nil
}
