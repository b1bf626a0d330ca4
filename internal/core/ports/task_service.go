package ports

import (
	"context"
	"time"

	"github.com/taskflow/taskflow/internal/core/domain"
)

// TaskFilter carries the list query. Zero values mean "no filter".
type TaskFilter struct {
	Bucket   domain.Bucket
	Priority domain.Priority
	Status   string // "completed", "pending" or "" for all
	Search   string // case-insensitive match on title or description
	SortBy   string // created (default), deadline, priority, progress, title
	Desc     bool
}

// CreateTaskInput carries a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    string
	Progress    int
	Deadline    string
	AssignedTo  string
}

// TaskPatch carries a partial edit; nil fields are left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *string
	Progress    *int
	Deadline    *string
	AssignedTo  *string
}

type TaskService interface {
	List(ctx context.Context, collection string, filter TaskFilter) ([]domain.Task, error)
	Get(ctx context.Context, collection, id string) (*domain.Task, error)
	Create(ctx context.Context, collection string, in CreateTaskInput) (*domain.Task, error)
	Update(ctx context.Context, collection, id string, patch TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, collection, id string) error
	SetProgress(ctx context.Context, collection, id string, progress int) (*domain.Task, error)
	ToggleStatus(ctx context.Context, collection, id string) (*domain.Task, error)
	Complete(ctx context.Context, collection, id string) (*domain.Task, error)
	Move(ctx context.Context, collection, id string, to domain.Bucket) (*domain.Task, error)
	Board(ctx context.Context, collection string) (*domain.Board, error)
	Stats(ctx context.Context, collection string) (*domain.TaskStats, error)
	DueSoon(ctx context.Context, collection string, now time.Time) (*domain.DueTasks, error)
	Snapshot(ctx context.Context, collection string) (*domain.TaskSnapshot, error)
	Subscribe(ctx context.Context, collection string) (Subscription, error)
}

// WorkspaceService manages notes and profiles.
type WorkspaceService interface {
	GetNotes(ctx context.Context, userID string) (*domain.Notes, error)
	SaveNotes(ctx context.Context, userID string, notes domain.Notes) error
	GetProfile(ctx context.Context, id domain.Identity) (*domain.Profile, error)
	SaveProfile(ctx context.Context, id domain.Identity, profile domain.Profile) (*domain.Profile, error)
}
