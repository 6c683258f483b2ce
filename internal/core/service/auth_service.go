package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/leadflow/role-service/internal/core/access"
	"github.com/leadflow/role-service/internal/core/domain"
	"github.com/leadflow/role-service/internal/core/ports"
)

// AuthService implements registration, login and session lifecycle.
type AuthService struct {
	accounts    ports.AccountRepository
	profiles    ports.ProfileRepository
	issuer      ports.TokenIssuer
	revocations ports.RevocationStore
	resolver    *access.Resolver
	log         zerolog.Logger
	now         func() time.Time
}

func NewAuthService(
	accounts ports.AccountRepository,
	profiles ports.ProfileRepository,
	issuer ports.TokenIssuer,
	revocations ports.RevocationStore,
	resolver *access.Resolver,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		accounts:    accounts,
		profiles:    profiles,
		issuer:      issuer,
		revocations: revocations,
		resolver:    resolver,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *AuthService) Register(ctx context.Context, email, password, role string) (*domain.Profile, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" || strings.TrimSpace(role) == "" {
		return nil, domain.NewValidationError("email, password and role are required")
	}
	r, ok := domain.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("%w. Allowed: %s", domain.ErrInvalidRole, domain.AllowedRolesList())
	}
	return s.createUser(ctx, email, password, r, nil)
}

// EnsureAdmin creates an Admin account on first start so the first role
// assignment has someone allowed to make it. An existing email is left as is.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.accounts.FindByEmail(ctx, email); err == nil {
		s.log.Debug().Str("email", email).Msg("initial admin already present")
		return nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("ensure admin: %w", err)
	}

	claims := map[string]any{domain.ClaimRole: string(domain.RoleAdmin)}
	profile, err := s.createUser(ctx, email, password, domain.RoleAdmin, claims)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	s.log.Info().Str("uid", profile.UID).Str("email", email).Msg("initial admin created")
	return nil
}

func (s *AuthService) createUser(ctx context.Context, email, password string, role domain.Role, claims map[string]any) (*domain.Profile, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	uid := uuid.NewString()
	account := &domain.Account{
		UID:          uid,
		Email:        email,
		PasswordHash: string(hash),
		CustomClaims: domain.MergeClaims(claims, nil),
		CreatedAt:    now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	profile := &domain.Profile{
		UID:       uid,
		Email:     email,
		Role:      string(role),
		IsActive:  true,
		CreatedAt: now,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		s.log.Error().Err(err).Str("uid", uid).Msg("account created but profile write failed")
		return nil, fmt.Errorf("register: create profile: %w", err)
	}
	return profile, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if account.Disabled {
		return nil, domain.ErrAccountDisabled
	}

	token, claims, err := s.issuer.Issue(account)
	if err != nil {
		return nil, fmt.Errorf("login: issue token: %w", err)
	}

	decision, err := s.resolver.Guard(ctx, claims, domain.SurfaceNone)
	if err != nil {
		return nil, fmt.Errorf("login: resolve role: %w", err)
	}
	if decision.SignOut {
		s.log.Info().Str("uid", account.UID).Msg("login refused: profile deactivated")
		return nil, domain.ErrAccountDeactivated
	}

	s.log.Info().Str("uid", account.UID).Str("role", decision.Role).Msg("login")
	return &ports.Session{Token: token, Claims: claims, Role: decision.Role, Redirect: decision.Redirect}, nil
}

// Refresh reissues a token with the account's current custom claims and
// revokes the one presented.
func (s *AuthService) Refresh(ctx context.Context, current *domain.TokenClaims) (*ports.Session, error) {
	if current == nil || current.UID == "" {
		return nil, domain.ErrUnauthenticated
	}
	account, err := s.accounts.FindByUID(ctx, current.UID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	if account.Disabled {
		return nil, domain.ErrAccountDisabled
	}

	token, claims, err := s.issuer.Issue(account)
	if err != nil {
		return nil, fmt.Errorf("refresh: issue token: %w", err)
	}
	if err := s.revoke(ctx, current); err != nil {
		return nil, fmt.Errorf("refresh: revoke previous token: %w", err)
	}

	decision, err := s.resolver.Guard(ctx, claims, domain.SurfaceNone)
	if err != nil {
		return nil, fmt.Errorf("refresh: resolve role: %w", err)
	}
	if decision.SignOut {
		return nil, domain.ErrAccountDeactivated
	}

	s.log.Info().Str("uid", account.UID).Str("role", decision.Role).Msg("token refreshed")
	return &ports.Session{Token: token, Claims: claims, Role: decision.Role, Redirect: decision.Redirect}, nil
}

func (s *AuthService) Logout(ctx context.Context, current *domain.TokenClaims) error {
	if current == nil || current.UID == "" {
		return domain.ErrUnauthenticated
	}
	if err := s.revoke(ctx, current); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info().Str("uid", current.UID).Msg("logout")
	return nil
}

func (s *AuthService) revoke(ctx context.Context, claims *domain.TokenClaims) error {
	ttl := claims.ExpiresAt.Sub(s.now())
	if claims.ID == "" || ttl <= 0 {
		return nil
	}
	return s.revocations.Revoke(ctx, claims.ID, ttl)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
