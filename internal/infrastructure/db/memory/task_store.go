// Package memory holds process-local implementations of the task store, the
// change feed and the workspace store. They back tests and single-instance
// deployments (TASK_BACKEND=memory).
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/taskflow/taskflow/internal/core/domain"
)

// TaskStore keeps one versioned snapshot per collection.
type TaskStore struct {
	mu    sync.RWMutex
	snaps map[string]domain.TaskSnapshot
	now   func() time.Time
}

func NewTaskStore() *TaskStore {
	return &TaskStore{
		snaps: make(map[string]domain.TaskSnapshot),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *TaskStore) Load(_ context.Context, collection string) (*domain.TaskSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[collection]
	if !ok {
		return &domain.TaskSnapshot{Collection: collection, Tasks: []domain.Task{}}, nil
	}
	snap.Tasks = domain.CloneTasks(snap.Tasks)
	return &snap, nil
}

func (s *TaskStore) Save(_ context.Context, collection string, expectedVersion int64, tasks []domain.Task) (*domain.TaskSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snaps[collection].Version != expectedVersion {
		return nil, domain.ErrVersionConflict
	}
	snap := domain.TaskSnapshot{
		Collection: collection,
		Version:    expectedVersion + 1,
		Tasks:      domain.CloneTasks(tasks),
		UpdatedAt:  s.now(),
	}
	s.snaps[collection] = snap

	out := snap
	out.Tasks = domain.CloneTasks(snap.Tasks)
	return &out, nil
}
