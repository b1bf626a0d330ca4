package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskflow/taskflow/internal/core/domain"
)

// TaskStore keeps each collection as one JSON snapshot.
// Key format: taskflow:tasks:<collection>
type TaskStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewTaskStore creates a TaskStore wrapping the given Redis client.
func NewTaskStore(client *redis.Client) *TaskStore {
	return &TaskStore{client: client, now: func() time.Time { return time.Now().UTC() }}
}

func tasksKey(collection string) string { return keyPrefix + "tasks:" + collection }

func (s *TaskStore) Load(ctx context.Context, collection string) (*domain.TaskSnapshot, error) {
	return s.load(ctx, s.client, collection)
}

// Save writes the snapshot under WATCH so a concurrent writer aborts the
// transaction instead of being overwritten.
func (s *TaskStore) Save(ctx context.Context, collection string, expectedVersion int64, tasks []domain.Task) (*domain.TaskSnapshot, error) {
	key := tasksKey(collection)
	var saved *domain.TaskSnapshot

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := s.load(ctx, tx, collection)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return domain.ErrVersionConflict
		}

		next := &domain.TaskSnapshot{
			Collection: collection,
			Version:    expectedVersion + 1,
			Tasks:      tasks,
			UpdatedAt:  s.now(),
		}
		if next.Tasks == nil {
			next.Tasks = []domain.Task{}
		}
		raw, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode tasks: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			return nil
		})
		if err != nil {
			return err
		}
		saved = next
		return nil
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return nil, domain.ErrVersionConflict
	}
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *TaskStore) load(ctx context.Context, c getter, collection string) (*domain.TaskSnapshot, error) {
	raw, err := c.Get(ctx, tasksKey(collection)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &domain.TaskSnapshot{Collection: collection, Tasks: []domain.Task{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tasks: %w", err)
	}

	var snap domain.TaskSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	if snap.Tasks == nil {
		snap.Tasks = []domain.Task{}
	}
	return &snap, nil
}
