package ports

import (
	"context"

	"github.com/leadflow/role-service/internal/core/domain"
)

// Session is an issued token together with its verified claims and the
// surface the identity should land on.
type Session struct {
	Token    string
	Claims   *domain.TokenClaims
	Role     string
	Redirect domain.Surface
}

type AuthService interface {
	Register(ctx context.Context, email, password, role string) (*domain.Profile, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, current *domain.TokenClaims) (*Session, error)
	Logout(ctx context.Context, current *domain.TokenClaims) error
}
