package cart

import (
	"context"
	"sync"

	"github.com/fjod/storefront/internal/repository"
)

// mockRepository implements repository.CartRepository with injectable failures.
type mockRepository struct {
	m         sync.Mutex
	slots     map[string][]byte
	getErr    error
	upsertErr error
	gets      int
	upserts   int
}

func newMockRepository() *mockRepository {
	return &mockRepository{slots: make(map[string][]byte)}
}

func (m *mockRepository) GetCart(_ context.Context, sessionID string) ([]byte, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	payload, ok := m.slots[sessionID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return payload, nil
}

func (m *mockRepository) UpsertCart(_ context.Context, sessionID string, payload []byte) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.upserts++
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.slots[sessionID] = payload
	return nil
}

func (m *mockRepository) DeleteCart(_ context.Context, sessionID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.slots[sessionID]; !ok {
		return repository.ErrCartNotFound
	}
	delete(m.slots, sessionID)
	return nil
}

func (m *mockRepository) stored(sessionID string) string {
	m.m.Lock()
	defer m.m.Unlock()
	return string(m.slots[sessionID])
}

func (m *mockRepository) setUpsertErr(err error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.upsertErr = err
}
