package repository

import (
	"context"
	"sync"
)

// MemoryRepository keeps cart slots in process memory. Carts live as long as
// the process does.
type MemoryRepository struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{slots: make(map[string][]byte)}
}

func (m *MemoryRepository) GetCart(_ context.Context, sessionID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	payload, ok := m.slots[sessionID]
	if !ok {
		return nil, ErrCartNotFound
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

func (m *MemoryRepository) UpsertCart(_ context.Context, sessionID string, payload []byte) error {
	stored := make([]byte, len(payload))
	copy(stored, payload)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[sessionID] = stored
	return nil
}

func (m *MemoryRepository) DeleteCart(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.slots[sessionID]; !ok {
		return ErrCartNotFound
	}
	delete(m.slots, sessionID)
	return nil
}
