package ports

import (
	"context"

	"github.com/taskflow/taskflow/internal/core/domain"
)

// UserService is the admin user API.
type UserService interface {
	ListUsers(ctx context.Context) ([]*domain.User, error)
	UpdateUser(ctx context.Context, email, fullName, role string) (*domain.User, error)
	DeleteUser(ctx context.Context, email string) error
	Overview(ctx context.Context) (*domain.UserOverview, error)
}

// AuditService processes and lists auth events.
type AuditService interface {
	Record(ctx context.Context, event domain.AuthEvent) error
	Recent(ctx context.Context, limit int) ([]*domain.AuthEvent, error)
}
