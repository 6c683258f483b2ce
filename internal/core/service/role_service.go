package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/leadflow/role-service/internal/core/domain"
	"github.com/leadflow/role-service/internal/core/ports"
)

// RoleService applies role assignments across the profile store and the auth
// subsystem's custom claims.
//
// The two writes are not jointly atomic. The Profile is written first and is
// the durable source of truth; claims are a denormalized copy that converges
// on the next successful call or token refresh. Two concurrent assignments to
// the same target race on the claim merge and the last writer wins.
type RoleService struct {
	profiles  ports.ProfileRepository
	accounts  ports.AccountRepository
	limiter   ports.RateLimiter
	publisher ports.RoleEventPublisher
	log       zerolog.Logger
	now       func() time.Time
}

func NewRoleService(
	profiles ports.ProfileRepository,
	accounts ports.AccountRepository,
	limiter ports.RateLimiter,
	publisher ports.RoleEventPublisher,
	log zerolog.Logger,
) *RoleService {
	return &RoleService{
		profiles:  profiles,
		accounts:  accounts,
		limiter:   limiter,
		publisher: publisher,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AssignRole runs the request gates in order and applies the change only if
// every gate passes. Method and bearer-token checks happen in the transport.
func (s *RoleService) AssignRole(ctx context.Context, in ports.AssignRoleInput) (*ports.AssignRoleResult, error) {
	if in.Requester == nil || in.Requester.UID == "" {
		return nil, domain.ErrUnauthenticated
	}
	requester := in.Requester.UID
	log := s.log.With().Str("requester", requester).Logger()

	// 1. Parameters present, string-typed, non-empty after trimming.
	targetUID, okUID := trimmedString(in.TargetUID)
	rawRole, okRole := trimmedString(in.Role)
	if !okUID || !okRole {
		log.Info().Msg("assign role rejected: missing parameters")
		return nil, domain.NewValidationError("Missing parameters. Expected { uid, role }")
	}
	log = log.With().Str("target", targetUID).Logger()

	// 2. Closed role enumeration (exact match).
	role := domain.Role(rawRole)
	if !role.IsAllowed() {
		log.Info().Str("role", rawRole).Msg("assign role rejected: invalid role")
		return nil, fmt.Errorf("%w. Allowed: %s", domain.ErrInvalidRole, domain.AllowedRolesList())
	}

	// 3. Rate limit, fail closed.
	decision := s.limiter.Allow(ctx, requester)
	switch decision.Verdict {
	case domain.RateAllowed:
	case domain.RateDeniedQuota:
		log.Warn().Int("count", decision.Count).Time("window_start", decision.WindowStart).Msg("assign role throttled: quota exhausted")
		return nil, domain.ErrRateLimited
	default:
		log.Error().Err(decision.Err).Str("verdict", decision.Verdict.String()).Msg("assign role throttled: rate limiter unavailable")
		return nil, domain.ErrRateLimited
	}

	// 4. Requester must be Admin in the Profile OR in the token claim. The OR
	// tolerates one of the two sources lagging behind the other.
	authorized, err := s.isAdmin(ctx, in.Requester)
	if err != nil {
		log.Error().Err(err).Msg("assign role failed: read requester profile")
		return nil, fmt.Errorf("assign role: read requester profile: %w", err)
	}
	if !authorized {
		log.Warn().Str("claims_role", in.Requester.Role).Msg("assign role forbidden: requester is not Admin")
		return nil, domain.ErrForbidden
	}

	// 5. Target must exist in the auth subsystem and be enabled.
	account, err := s.accounts.FindByUID(ctx, targetUID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			log.Info().Msg("assign role rejected: target not found")
			return nil, domain.ErrTargetNotFound
		}
		log.Error().Err(err).Msg("assign role failed: lookup target")
		return nil, fmt.Errorf("assign role: lookup target: %w", err)
	}
	if account.Disabled {
		log.Info().Msg("assign role rejected: target disabled")
		return nil, domain.ErrTargetDisabled
	}

	// Phase one: the Profile.
	at := s.now()
	if err := s.profiles.MergeRole(ctx, targetUID, role, at); err != nil {
		log.Error().Err(err).Str("role", string(role)).Msg("assign role failed: profile write")
		return nil, fmt.Errorf("assign role: update profile: %w", err)
	}

	// Phase two: claims. Re-read so unrelated claims written since the
	// account lookup are not lost.
	previous, claimsErr := s.mergeRoleClaim(ctx, targetUID, role)
	s.publish(domain.RoleChangeEvent{
		TargetUID:    targetUID,
		RequesterUID: requester,
		PreviousRole: previous,
		NewRole:      role,
		ClaimsSynced: claimsErr == nil,
		At:           at,
	})
	if claimsErr != nil {
		log.Error().Err(claimsErr).
			Str("role", string(role)).
			Bool("profile_written", true).
			Bool("claims_written", false).
			Msg("assign role partially applied: claims write failed")
		return nil, fmt.Errorf("assign role: update claims: %w", claimsErr)
	}

	log.Info().Str("role", string(role)).Str("previous_role", previous).Msg("role assigned")
	return &ports.AssignRoleResult{TargetUID: targetUID, Role: role}, nil
}

func (s *RoleService) isAdmin(ctx context.Context, requester *domain.TokenClaims) (bool, error) {
	if domain.IsAdminRole(requester.Role) {
		return true, nil
	}
	profile, err := s.profiles.FindByUID(ctx, requester.UID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return false, nil
		}
		return false, err
	}
	return domain.IsAdminRole(profile.Role), nil
}

func (s *RoleService) mergeRoleClaim(ctx context.Context, uid string, role domain.Role) (string, error) {
	existing, err := s.accounts.CustomClaims(ctx, uid)
	if err != nil {
		return "", fmt.Errorf("read claims: %w", err)
	}
	previous, _ := existing[domain.ClaimRole].(string)
	merged := domain.MergeClaims(existing, map[string]any{domain.ClaimRole: string(role)})
	if err := s.accounts.SetCustomClaims(ctx, uid, merged); err != nil {
		return previous, fmt.Errorf("write claims: %w", err)
	}
	return previous, nil
}

func (s *RoleService) publish(event domain.RoleChangeEvent) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(event)
}

func trimmedString(v any) (string, bool) {
	str, ok := v.(string)
	if !ok {
		return "", false
	}
	str = strings.TrimSpace(str)
	return str, str != ""
}
