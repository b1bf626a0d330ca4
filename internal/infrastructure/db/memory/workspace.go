package memory

import (
	"context"
	"sync"
)

// WorkspaceStore is a map-backed ports.WorkspaceStore.
type WorkspaceStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewWorkspaceStore() *WorkspaceStore {
	return &WorkspaceStore{data: make(map[string][]byte)}
}

func (s *WorkspaceStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *WorkspaceStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}
