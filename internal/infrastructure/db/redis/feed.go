package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/taskflow/taskflow/internal/api/metrics"
	"github.com/taskflow/taskflow/internal/core/domain"
	"github.com/taskflow/taskflow/internal/core/ports"
)

// Feed publishes task snapshots over Redis Pub/Sub so every API instance can
// notify its own subscribers.
// Channel format: taskflow:tasks:changes:<collection>
type Feed struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewFeed creates a Feed wrapping the given Redis client.
func NewFeed(client *redis.Client, log zerolog.Logger) *Feed {
	return &Feed{client: client, log: log}
}

func changesChannel(collection string) string { return keyPrefix + "tasks:changes:" + collection }

func (f *Feed) Publish(ctx context.Context, snap *domain.TaskSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.client.Publish(ctx, changesChannel(snap.Collection), raw).Err(); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

// Subscribe returns once Redis has confirmed the subscription, so a snapshot
// published afterwards is guaranteed to reach it.
func (f *Feed) Subscribe(ctx context.Context, collection string) (ports.Subscription, error) {
	ps := f.client.Subscribe(ctx, changesChannel(collection))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", collection, err)
	}

	sub := &subscription{
		ps:   ps,
		out:  make(chan *domain.TaskSnapshot, 1),
		done: make(chan struct{}),
	}
	metrics.TaskSubscribers.Inc()
	go f.pump(ctx, collection, sub)
	return sub, nil
}

func (f *Feed) pump(ctx context.Context, collection string, sub *subscription) {
	defer func() {
		_ = sub.ps.Close()
		close(sub.out)
		metrics.TaskSubscribers.Dec()
	}()

	msgs := sub.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var snap domain.TaskSnapshot
			if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
				f.log.Warn().Err(err).Str("collection", collection).Msg("dropping undecodable task snapshot")
				continue
			}
			sub.offer(&snap)
		}
	}
}

type subscription struct {
	ps   *redis.PubSub
	out  chan *domain.TaskSnapshot
	done chan struct{}
	once sync.Once
}

func (s *subscription) Changes() <-chan *domain.TaskSnapshot { return s.out }

func (s *subscription) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

// offer replaces a pending snapshot with snap unless the pending one is newer.
func (s *subscription) offer(snap *domain.TaskSnapshot) {
	for {
		select {
		case s.out <- snap:
			return
		default:
		}
		select {
		case old := <-s.out:
			if old.Version > snap.Version {
				snap = old
			}
		default:
		}
	}
}
