package ports

import (
	"context"
	"time"

	"github.com/taskflow/taskflow/internal/core/domain"
)

// UserRepository is the credential store.
type UserRepository interface {
	// Create inserts the user in a single conditional write. It returns
	// domain.ErrDuplicateEmail when the email is already taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// SetResetToken stores the hash of a reset token and its expiry.
	SetResetToken(ctx context.Context, userID, tokenHash string, expires time.Time) error
	// ConsumeResetToken atomically finds the user holding tokenHash with an
	// expiry after now, replaces the password hash and clears the reset
	// fields. It returns domain.ErrInvalidOrExpiredToken when nothing matches.
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	UpdateByEmail(ctx context.Context, email, fullName, role string) (*domain.User, error)
	DeleteByEmail(ctx context.Context, email string) error
}

// AuthEventRepository persists the login/registration audit log.
type AuthEventRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
	// Recent returns at most limit events, newest first.
	Recent(ctx context.Context, limit int) ([]*domain.AuthEvent, error)
}
