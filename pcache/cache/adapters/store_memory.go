package adapters

import (
	"context"
	"sync"
	"time"

	ports "github.com/ZanzyTHEbar/payload-cache/pcache/cache/ports"
)

// MemoryTransformationStore is a process-local TransformationStore. It lives
// only as long as the process and is meant for tests and throwaway runs.
type MemoryTransformationStore struct {
	mu   sync.RWMutex
	data map[string]ports.CachedTransformation
}

func NewMemoryTransformationStore() *MemoryTransformationStore {
	return &MemoryTransformationStore{data: make(map[string]ports.CachedTransformation)}
}

func (m *MemoryTransformationStore) GetTransformation(ctx context.Context, input string) (ports.CachedTransformation, error) {
	if err := ctx.Err(); err != nil {
		return ports.CachedTransformation{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.data[input]
	if !ok {
		return ports.CachedTransformation{}, ports.ErrNotFound
	}
	return t, nil
}

func (m *MemoryTransformationStore) PutTransformation(ctx context.Context, t ports.CachedTransformation) (ports.CachedTransformation, error) {
	if err := ctx.Err(); err != nil {
		return ports.CachedTransformation{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.data[t.Input]; ok {
		return existing, nil
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	m.data[t.Input] = t
	return t, nil
}

// Len reports the number of stored transformations.
func (m *MemoryTransformationStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// MemoryPayloadStore is a process-local PayloadStore.
type MemoryPayloadStore struct {
	mu   sync.RWMutex
	data map[string]ports.Payload
}

func NewMemoryPayloadStore() *MemoryPayloadStore {
	return &MemoryPayloadStore{data: make(map[string]ports.Payload)}
}

func (m *MemoryPayloadStore) GetPayload(ctx context.Context, identifier string) (ports.Payload, error) {
	if err := ctx.Err(); err != nil {
		return ports.Payload{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.data[identifier]
	if !ok {
		return ports.Payload{}, ports.ErrNotFound
	}
	return p, nil
}

func (m *MemoryPayloadStore) PutPayload(ctx context.Context, p ports.Payload) (ports.Payload, bool, error) {
	if err := ctx.Err(); err != nil {
		return ports.Payload{}, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.data[p.Identifier]; ok {
		return existing, false, nil
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	m.data[p.Identifier] = p
	return p, true, nil
}

// Len reports the number of stored payloads.
func (m *MemoryPayloadStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

var (
	_ ports.TransformationStore = (*MemoryTransformationStore)(nil)
	_ ports.PayloadStore        = (*MemoryPayloadStore)(nil)
)
