package ports

import (
	"context"

	"github.com/leadflow/role-service/internal/core/domain"
)

// UserService is the Admin user directory.
type UserService interface {
	List(ctx context.Context) ([]*domain.Profile, error)
	SetActive(ctx context.Context, requester *domain.TokenClaims, uid string, active bool) (*domain.Profile, error)
}
