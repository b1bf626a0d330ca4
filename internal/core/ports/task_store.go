package ports

import (
	"context"

	"github.com/taskflow/taskflow/internal/core/domain"
)

// TaskStore persists whole task collections with optimistic versioning.
type TaskStore interface {
	// Load returns the current snapshot. A collection that was never
	// written yields an empty snapshot at version 0.
	Load(ctx context.Context, collection string) (*domain.TaskSnapshot, error)
	// Save replaces the collection only if its version still equals
	// expectedVersion, returning the stored snapshot at expectedVersion+1.
	// Otherwise it returns domain.ErrVersionConflict.
	Save(ctx context.Context, collection string, expectedVersion int64, tasks []domain.Task) (*domain.TaskSnapshot, error)
}

// TaskFeed is the one notification path for collection changes.
type TaskFeed interface {
	Publish(ctx context.Context, snapshot *domain.TaskSnapshot) error
	// Subscribe registers a listener for collection. The subscription ends
	// when ctx is cancelled or Close is called.
	Subscribe(ctx context.Context, collection string) (Subscription, error)
}

// Subscription delivers snapshots newer than the last one received. When a
// listener falls behind, older undelivered snapshots are replaced by newer ones.
type Subscription interface {
	Changes() <-chan *domain.TaskSnapshot
	Close() error
}

// WorkspaceStore keeps small per-user documents (notes, profiles).
type WorkspaceStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}
