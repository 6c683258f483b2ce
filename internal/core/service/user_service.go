package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/leadflow/role-service/internal/core/domain"
	"github.com/leadflow/role-service/internal/core/ports"
)

// UserService backs the Admin user directory.
type UserService struct {
	profiles ports.ProfileRepository
	accounts ports.AccountRepository
	log      zerolog.Logger
	now      func() time.Time
}

func NewUserService(profiles ports.ProfileRepository, accounts ports.AccountRepository, log zerolog.Logger) *UserService {
	return &UserService{
		profiles: profiles,
		accounts: accounts,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns every Profile, oldest first.
func (s *UserService) List(ctx context.Context) ([]*domain.Profile, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].CreatedAt.Before(profiles[j].CreatedAt)
	})
	return profiles, nil
}

// SetActive toggles a user's Profile isActive flag and mirrors it to the
// account's disabled switch.
func (s *UserService) SetActive(ctx context.Context, requester *domain.TokenClaims, uid string, active bool) (*domain.Profile, error) {
	if requester == nil || requester.UID == "" {
		return nil, domain.ErrUnauthenticated
	}
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, domain.NewValidationError("uid is required")
	}
	if uid == requester.UID {
		return nil, domain.NewValidationError("you cannot change your own active state")
	}

	if err := s.profiles.SetActive(ctx, uid, active, s.now()); err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("set active: %w", err)
	}
	if err := s.accounts.SetDisabled(ctx, uid, !active); err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		s.log.Error().Err(err).Str("uid", uid).Bool("active", active).Msg("profile updated but account disable flag was not")
		return nil, fmt.Errorf("set active: mirror account: %w", err)
	}

	profile, err := s.profiles.FindByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("set active: reload: %w", err)
	}
	s.log.Info().Str("requester", requester.UID).Str("uid", uid).Bool("active", active).Msg("user active state changed")
	return profile, nil
}
