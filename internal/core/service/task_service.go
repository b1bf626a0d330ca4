package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"

	"github.com/taskflow/taskflow/internal/api/metrics"
	"github.com/taskflow/taskflow/internal/core/domain"
	"github.com/taskflow/taskflow/internal/core/ports"
)

const maxMutateAttempts = 5

// TaskService owns every read and write of a task collection. Writes load
// the collection from the store, apply a pure transformation, save with the
// loaded version and, once committed, publish the new snapshot.
type TaskService struct {
	store ports.TaskStore
	feed  ports.TaskFeed
	log   zerolog.Logger
	now   func() time.Time
	newID func() (string, error)
}

func NewTaskService(store ports.TaskStore, feed ports.TaskFeed, log zerolog.Logger) *TaskService {
	return &TaskService{
		store: store,
		feed:  feed,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
		newID: newTaskID,
	}
}

// newTaskID returns a random UUID. List order, not ID order, is the
// insertion order.
func newTaskID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("generate task id: %w", err)
	}
	return id.String(), nil
}

// mutation transforms a private copy of the task list. The returned task is
// the one the caller is interested in (nil for deletes).
type mutation func(tasks []domain.Task) ([]domain.Task, *domain.Task, error)

func (s *TaskService) mutate(ctx context.Context, collection, op string, fn mutation) (*domain.Task, error) {
	for attempt := 1; attempt <= maxMutateAttempts; attempt++ {
		current, err := s.store.Load(ctx, collection)
		if err != nil {
			return nil, fmt.Errorf("load tasks: %w", err)
		}

		next, task, err := fn(domain.CloneTasks(current.Tasks))
		if err != nil {
			return nil, err
		}

		saved, err := s.store.Save(ctx, collection, current.Version, next)
		if errors.Is(err, domain.ErrVersionConflict) {
			metrics.TaskVersionConflictsTotal.Inc()
			s.log.Debug().Str("collection", collection).Int("attempt", attempt).Msg("task collection changed underneath, retrying")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("save tasks: %w", err)
		}

		metrics.TaskMutationsTotal.WithLabelValues(op).Inc()
		if err := s.feed.Publish(ctx, saved); err != nil {
			s.log.Warn().Err(err).Str("collection", collection).Int64("version", saved.Version).Msg("task change notification failed")
		}
		return task, nil
	}
	return nil, domain.ErrVersionConflict
}

// update applies fn to the task with id and re-validates it.
func (s *TaskService) update(ctx context.Context, collection, id, op string, fn func(t *domain.Task) error) (*domain.Task, error) {
	return s.mutate(ctx, collection, op, func(tasks []domain.Task) ([]domain.Task, *domain.Task, error) {
		snap := domain.TaskSnapshot{Tasks: tasks}
		i := snap.Find(id)
		if i < 0 {
			return nil, nil, domain.ErrTaskNotFound
		}
		t := tasks[i]
		if err := fn(&t); err != nil {
			return nil, nil, err
		}
		if err := t.Validate(); err != nil {
			return nil, nil, err
		}
		t.UpdatedAt = s.now()
		tasks[i] = t
		return tasks, &t, nil
	})
}

func (s *TaskService) Create(ctx context.Context, collection string, in ports.CreateTaskInput) (*domain.Task, error) {
	priority, err := domain.ParsePriority(in.Priority)
	if err != nil {
		return nil, err
	}
	id, err := s.newID()
	if err != nil {
		return nil, err
	}

	now := s.now()
	task := domain.Task{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Priority:    priority,
		Progress:    in.Progress,
		Deadline:    in.Deadline,
		AssignedTo:  in.AssignedTo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	created, err := s.mutate(ctx, collection, "create", func(tasks []domain.Task) ([]domain.Task, *domain.Task, error) {
		return append(tasks, task), &task, nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("collection", collection).Str("task_id", id).Msg("task created")
	return created, nil
}

func (s *TaskService) Update(ctx context.Context, collection, id string, patch ports.TaskPatch) (*domain.Task, error) {
	return s.update(ctx, collection, id, "update", func(t *domain.Task) error {
		if patch.Title != nil {
			t.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Description != nil {
			t.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Priority != nil {
			p, err := domain.ParsePriority(*patch.Priority)
			if err != nil {
				return err
			}
			t.Priority = p
		}
		if patch.Progress != nil {
			t.Progress = *patch.Progress
		}
		if patch.Deadline != nil {
			t.Deadline = *patch.Deadline
		}
		if patch.AssignedTo != nil {
			t.AssignedTo = *patch.AssignedTo
		}
		return nil
	})
}

func (s *TaskService) Delete(ctx context.Context, collection, id string) error {
	_, err := s.mutate(ctx, collection, "delete", func(tasks []domain.Task) ([]domain.Task, *domain.Task, error) {
		out := tasks[:0]
		found := false
		for _, t := range tasks {
			if t.ID == id {
				found = true
				continue
			}
			out = append(out, t)
		}
		if !found {
			return nil, nil, domain.ErrTaskNotFound
		}
		return out, nil, nil
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("collection", collection).Str("task_id", id).Msg("task deleted")
	return nil
}

func (s *TaskService) SetProgress(ctx context.Context, collection, id string, progress int) (*domain.Task, error) {
	return s.update(ctx, collection, id, "progress", func(t *domain.Task) error {
		t.Progress = progress
		return nil
	})
}

// ToggleStatus flips a task between Completed (progress 100) and To Do
// (progress 0).
func (s *TaskService) ToggleStatus(ctx context.Context, collection, id string) (*domain.Task, error) {
	return s.update(ctx, collection, id, "toggle", func(t *domain.Task) error {
		if t.Bucket() == domain.BucketCompleted {
			t.Progress = domain.BucketToDo.CanonicalProgress()
		} else {
			t.Progress = domain.BucketCompleted.CanonicalProgress()
		}
		return nil
	})
}

// Complete marks a task Completed. A completed task stays completed.
func (s *TaskService) Complete(ctx context.Context, collection, id string) (*domain.Task, error) {
	return s.update(ctx, collection, id, "complete", func(t *domain.Task) error {
		t.Progress = domain.BucketCompleted.CanonicalProgress()
		return nil
	})
}

// Move places a task in another board column. Bucket membership is persisted
// through progress, so a reload shows the task where it was dropped; the
// task also moves to the end of the list.
func (s *TaskService) Move(ctx context.Context, collection, id string, to domain.Bucket) (*domain.Task, error) {
	if _, err := domain.ParseBucket(string(to)); err != nil {
		return nil, err
	}
	return s.mutate(ctx, collection, "move", func(tasks []domain.Task) ([]domain.Task, *domain.Task, error) {
		snap := domain.TaskSnapshot{Tasks: tasks}
		i := snap.Find(id)
		if i < 0 {
			return nil, nil, domain.ErrTaskNotFound
		}
		t := tasks[i]
		if !to.Contains(t.Progress) {
			t.Progress = to.CanonicalProgress()
		}
		t.UpdatedAt = s.now()
		out := append(tasks[:i:i], tasks[i+1:]...)
		out = append(out, t)
		return out, &t, nil
	})
}

func (s *TaskService) Snapshot(ctx context.Context, collection string) (*domain.TaskSnapshot, error) {
	snap, err := s.store.Load(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	return snap, nil
}

func (s *TaskService) Get(ctx context.Context, collection, id string) (*domain.Task, error) {
	snap, err := s.Snapshot(ctx, collection)
	if err != nil {
		return nil, err
	}
	i := snap.Find(id)
	if i < 0 {
		return nil, domain.ErrTaskNotFound
	}
	t := snap.Tasks[i]
	return &t, nil
}

func (s *TaskService) List(ctx context.Context, collection string, filter ports.TaskFilter) ([]domain.Task, error) {
	snap, err := s.Snapshot(ctx, collection)
	if err != nil {
		return nil, err
	}
	return applyTaskFilter(snap.Tasks, filter)
}

func (s *TaskService) Board(ctx context.Context, collection string) (*domain.Board, error) {
	snap, err := s.Snapshot(ctx, collection)
	if err != nil {
		return nil, err
	}
	board := domain.NewBoard(snap.Tasks)
	return &board, nil
}

func (s *TaskService) Stats(ctx context.Context, collection string) (*domain.TaskStats, error) {
	snap, err := s.Snapshot(ctx, collection)
	if err != nil {
		return nil, err
	}
	stats := domain.NewTaskStats(snap.Tasks)
	return &stats, nil
}

// DueSoon returns the open tasks due on now's calendar day or the next one.
func (s *TaskService) DueSoon(ctx context.Context, collection string, now time.Time) (*domain.DueTasks, error) {
	snap, err := s.Snapshot(ctx, collection)
	if err != nil {
		return nil, err
	}
	today := now.Format(domain.DeadlineLayout)
	tomorrow := now.AddDate(0, 0, 1).Format(domain.DeadlineLayout)

	due := &domain.DueTasks{Today: []domain.Task{}, Tomorrow: []domain.Task{}}
	for _, t := range snap.Tasks {
		if t.Bucket() == domain.BucketCompleted {
			continue
		}
		switch t.Deadline {
		case today:
			due.Today = append(due.Today, t)
		case tomorrow:
			due.Tomorrow = append(due.Tomorrow, t)
		}
	}
	return due, nil
}

// Subscribe opens a change subscription for collection.
func (s *TaskService) Subscribe(ctx context.Context, collection string) (ports.Subscription, error) {
	sub, err := s.feed.Subscribe(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("subscribe to tasks: %w", err)
	}
	return sub, nil
}
