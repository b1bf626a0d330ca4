package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/taskflow/taskflow/internal/api/metrics"
	"github.com/taskflow/taskflow/internal/core/domain"
	"github.com/taskflow/taskflow/internal/core/ports"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

type auditService struct {
	repo ports.AuthEventRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService implementation.
func NewAuditService(repo ports.AuthEventRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Record persists a single auth event.
func (s *auditService) Record(ctx context.Context, event domain.AuthEvent) error {
	if err := s.repo.Insert(ctx, &event); err != nil {
		metrics.AuditEventsTotal.WithLabelValues(string(event.Action), "failed").Inc()
		return fmt.Errorf("record auth event: %w", err)
	}
	metrics.AuditEventsTotal.WithLabelValues(string(event.Action), "stored").Inc()
	s.log.Debug().Str("user_id", event.UserID).Str("action", string(event.Action)).Msg("auth event recorded")
	return nil
}

// Recent lists the newest events. limit is clamped to [1, 500], default 50.
func (s *auditService) Recent(ctx context.Context, limit int) ([]*domain.AuthEvent, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	events, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list auth events: %w", err)
	}
	return events, nil
}
