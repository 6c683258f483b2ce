package ports

import (
	"context"

	"github.com/leadflow/role-service/internal/core/domain"
)

// AccountRepository is the auth subsystem's identity store: credentials,
// disabled state and custom token claims.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	// FindByUID returns domain.ErrUserNotFound when no account exists.
	FindByUID(ctx context.Context, uid string) (*domain.Account, error)
	CustomClaims(ctx context.Context, uid string) (map[string]any, error)
	// SetCustomClaims replaces the full claim set. Callers merge first.
	SetCustomClaims(ctx context.Context, uid string, claims map[string]any) error
	SetDisabled(ctx context.Context, uid string, disabled bool) error
}
