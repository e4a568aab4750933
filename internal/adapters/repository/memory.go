package repository

import (
	"context"
	"sync"

	"github.com/okian/juryrank/internal/domain/model"
)

// MemoryStore keeps a private copy of the state in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	state *model.State
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (model.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return model.State{}, ErrEmpty
	}
	return m.state.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, state model.State) error {
	cp := state.Clone()
	m.mu.Lock()
	m.state = &cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) Ping(_ context.Context) error { return nil }
