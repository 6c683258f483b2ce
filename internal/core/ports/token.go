package ports

import (
	"context"
	"time"

	"github.com/leadflow/role-service/internal/core/domain"
)

// TokenVerifier checks a raw bearer token cryptographically.
type TokenVerifier interface {
	Verify(raw string) (*domain.TokenClaims, error)
}

// TokenIssuer signs identity tokens that embed an account's custom claims.
type TokenIssuer interface {
	TokenVerifier
	Issue(account *domain.Account) (string, *domain.TokenClaims, error)
}

// RevocationStore tracks tokens that were signed out before they expired.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
