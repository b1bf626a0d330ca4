package ports

import (
	"context"

	"github.com/taskflow/taskflow/internal/core/domain"
)

// RegisterInput carries the sign-up form.
type RegisterInput struct {
	FullName  string
	Email     string
	Password  string
	Role      string // optional, defaults to "user"
	IPAddress string
}

// LoginInput carries the login form. A non-empty Role must match the stored role.
type LoginInput struct {
	Email     string
	Password  string
	Role      string
	IPAddress string
}

// Session is what a successful register or login hands back.
type Session struct {
	Token  string
	UserID string
	Role   string
}

// TokenVerifier validates session tokens.
type TokenVerifier interface {
	VerifySessionToken(token string) (domain.Identity, error)
}

type AuthService interface {
	TokenVerifier
	Register(ctx context.Context, in RegisterInput) (*Session, error)
	Login(ctx context.Context, in LoginInput) (*Session, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// Mailer is the outbound email collaborator.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetLink string) error
}

// AuthEventSink accepts audit events without blocking the caller.
type AuthEventSink interface {
	Enqueue(event domain.AuthEvent)
}
