package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// WorkspaceStore keeps notes and profiles as plain Redis strings.
// Key format: taskflow:ws:<key>
type WorkspaceStore struct {
	client *redis.Client
}

// NewWorkspaceStore creates a WorkspaceStore wrapping the given Redis client.
func NewWorkspaceStore(client *redis.Client) *WorkspaceStore {
	return &WorkspaceStore{client: client}
}

func (s *WorkspaceStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.client.Get(ctx, keyPrefix+"ws:"+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("workspace get: %w", err)
	}
	return v, true, nil
}

func (s *WorkspaceStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, keyPrefix+"ws:"+key, value, 0).Err(); err != nil {
		return fmt.Errorf("workspace put: %w", err)
	}
	return nil
}
