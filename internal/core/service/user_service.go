package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/taskflow/taskflow/internal/core/domain"
	"github.com/taskflow/taskflow/internal/core/ports"
)

// UserService implements the admin user API on top of the credential store.
type UserService struct {
	repo ports.UserRepository
	log  zerolog.Logger
}

func NewUserService(repo ports.UserRepository, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, log: log}
}

// ListUsers returns every account. Password and reset fields never leave the
// repository layer in serialised form.
func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UserService) UpdateUser(ctx context.Context, email, fullName, role string) (*domain.User, error) {
	if !domain.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	user, err := s.repo.UpdateByEmail(ctx, normalizeEmail(email), strings.TrimSpace(fullName), role)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Str("role", role).Msg("user updated by admin")
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, email string) error {
	if err := s.repo.DeleteByEmail(ctx, normalizeEmail(email)); err != nil {
		return err
	}
	s.log.Info().Str("email", normalizeEmail(email)).Msg("user deleted by admin")
	return nil
}

func (s *UserService) Overview(ctx context.Context) (*domain.UserOverview, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	ov := &domain.UserOverview{
		TotalUsers: len(users),
		ByRole:     map[string]int{domain.RoleUser: 0, domain.RoleAdmin: 0},
	}
	for _, u := range users {
		ov.ByRole[u.Role]++
	}
	return ov, nil
}
