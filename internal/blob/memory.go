package blob

import (
	"context"
	"sync"
)

type memoryObject struct {
	data       []byte
	generation int64
}

// Memory is an in-memory Store. It is safe for concurrent use and honors the
// same generation semantics as the real backend, which makes it suitable both
// for tests and for throwaway local runs. Data is lost on restart.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]*memoryObject
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]*memoryObject)}
}

// Download implements Store.
func (m *Memory) Download(_ context.Context, name string) ([]byte, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, exists := m.objects[name]
	if !exists {
		return nil, 0, ErrNotExist
	}

	// Copy to keep callers from mutating stored bytes.
	data := make([]byte, len(obj.data))
	copy(data, obj.data)

	return data, obj.generation, nil
}

// Upload implements Store.
func (m *Memory) Upload(_ context.Context, name string, data []byte, _ string, expectGeneration *int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current int64
	if obj, exists := m.objects[name]; exists {
		current = obj.generation
	}

	if expectGeneration != nil && *expectGeneration != current {
		return 0, ErrPreconditionFailed
	}

	stored := make([]byte, len(data))
	copy(stored, data)

	m.objects[name] = &memoryObject{data: stored, generation: current + 1}

	return current + 1, nil
}

var _ Store = (*Memory)(nil)
