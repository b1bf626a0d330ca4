package memory

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/taskflow/taskflow/internal/api/metrics"
	"github.com/taskflow/taskflow/internal/core/domain"
	"github.com/taskflow/taskflow/internal/core/ports"
)

// Feed fans snapshots out to in-process subscribers. Each subscriber holds
// at most one pending snapshot; a newer one replaces it.
type Feed struct {
	mu   sync.Mutex
	subs map[string]map[*subscription]struct{}
	log  zerolog.Logger
}

func NewFeed(log zerolog.Logger) *Feed {
	return &Feed{subs: make(map[string]map[*subscription]struct{}), log: log}
}

func (f *Feed) Publish(_ context.Context, snap *domain.TaskSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for sub := range f.subs[snap.Collection] {
		sub.offer(snap)
	}
	return nil
}

func (f *Feed) Subscribe(ctx context.Context, collection string) (ports.Subscription, error) {
	sub := &subscription{
		ch:   make(chan *domain.TaskSnapshot, 1),
		done: make(chan struct{}),
	}
	sub.cancel = func() { f.remove(collection, sub) }

	f.mu.Lock()
	if f.subs[collection] == nil {
		f.subs[collection] = make(map[*subscription]struct{})
	}
	f.subs[collection][sub] = struct{}{}
	f.mu.Unlock()
	metrics.TaskSubscribers.Inc()
	f.log.Debug().Str("collection", collection).Msg("task subscriber added")

	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-sub.done:
		}
	}()
	return sub, nil
}

func (f *Feed) remove(collection string, sub *subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs[collection], sub)
	if len(f.subs[collection]) == 0 {
		delete(f.subs, collection)
	}
	close(sub.ch)
	metrics.TaskSubscribers.Dec()
}

type subscription struct {
	ch     chan *domain.TaskSnapshot
	done   chan struct{}
	once   sync.Once
	cancel func()
}

func (s *subscription) Changes() <-chan *domain.TaskSnapshot { return s.ch }

func (s *subscription) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.cancel()
	})
	return nil
}

// offer delivers snap without blocking, dropping an older pending snapshot.
// Called with the feed lock held, so there is a single sender.
func (s *subscription) offer(snap *domain.TaskSnapshot) {
	for {
		select {
		case s.ch <- snap:
			return
		default:
		}
		select {
		case old := <-s.ch:
			if old.Version > snap.Version {
				snap = old
			}
		default:
		}
	}
}
