package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/leadflow/role-service/internal/core/domain"
	"github.com/leadflow/role-service/internal/core/ports"
)

// EventDedup abstracts the idempotency store (Redis).
type EventDedup interface {
	IsDuplicate(ctx context.Context, targetUID string, role domain.Role, at time.Time) (bool, error)
	Mark(ctx context.Context, targetUID string, role domain.Role, at time.Time) error
}

type roleEventService struct {
	events ports.RoleEventRepository
	dedup  EventDedup
	log    zerolog.Logger
}

// NewRoleEventService returns the processor that records role changes
// handed over by the dispatcher.
func NewRoleEventService(events ports.RoleEventRepository, dedup EventDedup, log zerolog.Logger) ports.RoleEventProcessor {
	return &roleEventService{events: events, dedup: dedup, log: log}
}

func (s *roleEventService) Process(ctx context.Context, event domain.RoleChangeEvent) error {
	log := s.log.With().
		Str("target", event.TargetUID).
		Str("requester", event.RequesterUID).
		Str("role", string(event.NewRole)).
		Logger()

	if s.dedup != nil {
		dup, err := s.dedup.IsDuplicate(ctx, event.TargetUID, event.NewRole, event.At)
		if err != nil {
			log.Warn().Err(err).Msg("dedup check failed, recording anyway")
		} else if dup {
			log.Debug().Msg("duplicate role change skipped")
			return nil
		}
	}

	if err := s.events.InsertRoleChange(ctx, &event); err != nil {
		return fmt.Errorf("record role change: %w", err)
	}

	if s.dedup != nil {
		if err := s.dedup.Mark(ctx, event.TargetUID, event.NewRole, event.At); err != nil {
			log.Warn().Err(err).Msg("failed to set dedup key")
		}
	}

	if !event.ClaimsSynced {
		log.Warn().Str("previous_role", event.PreviousRole).Msg("role change recorded with claims out of sync")
		return nil
	}
	log.Info().Str("previous_role", event.PreviousRole).Msg("role change recorded")
	return nil
}
