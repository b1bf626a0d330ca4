package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"

	"github.com/taskflow/taskflow/internal/core/domain"
	"github.com/taskflow/taskflow/internal/core/ports"
)

// WorkspaceService stores the per-user notes and the per-role profile.
type WorkspaceService struct {
	store ports.WorkspaceStore
	log   zerolog.Logger
}

func NewWorkspaceService(store ports.WorkspaceStore, log zerolog.Logger) *WorkspaceService {
	return &WorkspaceService{store: store, log: log}
}

func notesKey(userID string) string { return "notes:" + userID }

func profileKey(id domain.Identity) string { return "profile:" + id.Role + ":" + id.UserID }

func (s *WorkspaceService) GetNotes(ctx context.Context, userID string) (*domain.Notes, error) {
	var notes domain.Notes
	if err := s.load(ctx, notesKey(userID), &notes); err != nil {
		return nil, err
	}
	return &notes, nil
}

func (s *WorkspaceService) SaveNotes(ctx context.Context, userID string, notes domain.Notes) error {
	return s.save(ctx, notesKey(userID), notes)
}

// GetProfile returns the stored profile or an empty one carrying the role.
func (s *WorkspaceService) GetProfile(ctx context.Context, id domain.Identity) (*domain.Profile, error) {
	profile := domain.Profile{Role: id.Role}
	if err := s.load(ctx, profileKey(id), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *WorkspaceService) SaveProfile(ctx context.Context, id domain.Identity, profile domain.Profile) (*domain.Profile, error) {
	profile.Email = strings.TrimSpace(profile.Email)
	if profile.Email != "" {
		if _, err := mail.ParseAddress(profile.Email); err != nil {
			return nil, fmt.Errorf("%w: email must be a valid address", domain.ErrInvalidInput)
		}
	}
	profile.Role = id.Role
	if err := s.save(ctx, profileKey(id), profile); err != nil {
		return nil, err
	}
	s.log.Debug().Str("user_id", id.UserID).Msg("profile saved")
	return &profile, nil
}

func (s *WorkspaceService) load(ctx context.Context, key string, v any) error {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *WorkspaceService) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.store.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
