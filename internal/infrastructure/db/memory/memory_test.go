package memory

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow/taskflow/internal/core/domain"
)

func TestTaskStore_LoadEmpty(t *testing.T) {
	s := NewTaskStore()

	snap, err := s.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.Version)
	assert.Empty(t, snap.Tasks)
	assert.Equal(t, "u1", snap.Collection)
}

func TestTaskStore_SaveCompareAndSwap(t *testing.T) {
	s := NewTaskStore()
	ctx := context.Background()

	saved, err := s.Save(ctx, "u1", 0, []domain.Task{{ID: "a", Title: "A"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Version)

	_, err = s.Save(ctx, "u1", 0, []domain.Task{{ID: "b", Title: "B"}})
	require.ErrorIs(t, err, domain.ErrVersionConflict)

	loaded, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, loaded.Tasks, 1)
	assert.Equal(t, "a", loaded.Tasks[0].ID)
}

func TestTaskStore_LoadReturnsCopy(t *testing.T) {
	s := NewTaskStore()
	ctx := context.Background()
	_, err := s.Save(ctx, "u1", 0, []domain.Task{{ID: "a", Title: "A"}})
	require.NoError(t, err)

	snap, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	snap.Tasks[0].Title = "changed"

	again, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "A", again.Tasks[0].Title)
}

func receive(t *testing.T, ch <-chan *domain.TaskSnapshot) *domain.TaskSnapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "channel closed")
		return snap
	case <-time.After(time.Second):
		t.Fatal("no snapshot received")
		return nil
	}
}

func TestFeed_DeliversToCollectionSubscribers(t *testing.T) {
	f := NewFeed(zerolog.Nop())
	ctx := context.Background()

	sub1, err := f.Subscribe(ctx, "u1")
	require.NoError(t, err)
	defer sub1.Close()
	other, err := f.Subscribe(ctx, "u2")
	require.NoError(t, err)
	defer other.Close()

	require.NoError(t, f.Publish(ctx, &domain.TaskSnapshot{Collection: "u1", Version: 1}))

	assert.Equal(t, int64(1), receive(t, sub1.Changes()).Version)
	select {
	case snap := <-other.Changes():
		t.Fatalf("other collection received %+v", snap)
	default:
	}
}

func TestFeed_SlowSubscriberGetsLatest(t *testing.T) {
	f := NewFeed(zerolog.Nop())
	ctx := context.Background()
	sub, err := f.Subscribe(ctx, "u1")
	require.NoError(t, err)
	defer sub.Close()

	for v := int64(1); v <= 5; v++ {
		require.NoError(t, f.Publish(ctx, &domain.TaskSnapshot{Collection: "u1", Version: v}))
	}

	assert.Equal(t, int64(5), receive(t, sub.Changes()).Version)
}

func TestFeed_CloseAndCancel(t *testing.T) {
	f := NewFeed(zerolog.Nop())

	sub, err := f.Subscribe(context.Background(), "u1")
	require.NoError(t, err)
	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	_, ok := <-sub.Changes()
	assert.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	sub2, err := f.Subscribe(ctx, "u1")
	require.NoError(t, err)
	cancel()
	select {
	case _, ok := <-sub2.Changes():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after cancel")
	}

	// Publishing with no listeners left is a no-op.
	require.NoError(t, f.Publish(context.Background(), &domain.TaskSnapshot{Collection: "u1", Version: 1}))
}

func TestWorkspaceStore_GetPut(t *testing.T) {
	s := NewWorkspaceStore()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "notes:u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "notes:u1", []byte(`{"notes":"hi"}`)))
	v, ok, err := s.Get(ctx, "notes:u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"notes":"hi"}`, string(v))
}
