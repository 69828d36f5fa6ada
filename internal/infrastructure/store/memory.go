package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"browser-guide/internal/application/port/output"
	"browser-guide/internal/domain/entity"
)

var _ output.StatePort = (*MemoryStore)(nil)

// MemoryStore holds the record for the lifetime of the process only. It stores
// the encoded form so callers never share slices with the saved record.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (entity.PersistedState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		return entity.PersistedState{}, false, nil
	}
	var state entity.PersistedState
	if err := json.Unmarshal(m.data, &state); err != nil {
		return entity.PersistedState{}, false, fmt.Errorf("decode state: %w", err)
	}
	return state, true, nil
}

func (m *MemoryStore) Save(ctx context.Context, state entity.PersistedState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.data = nil
	m.mu.Unlock()
	return nil
}
