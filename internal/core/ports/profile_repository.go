package ports

import (
	"context"
	"time"

	"github.com/leadflow/role-service/internal/core/domain"
)

// ProfileRepository persists Profiles keyed by identity id.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	// FindByUID returns domain.ErrProfileNotFound when no profile exists.
	FindByUID(ctx context.Context, uid string) (*domain.Profile, error)
	List(ctx context.Context) ([]*domain.Profile, error)
	// MergeRole sets role and lastModified, leaving every other field untouched.
	// The record is created when missing.
	MergeRole(ctx context.Context, uid string, role domain.Role, at time.Time) error
	SetActive(ctx context.Context, uid string, active bool, at time.Time) error
}
