package ports

import (
	"context"

	"github.com/leadflow/role-service/internal/core/domain"
)

// RateLimiter checks and counts one call for a requester in a single atomic
// step. Implementations must fail closed.
type RateLimiter interface {
	Allow(ctx context.Context, requesterID string) domain.RateDecision
}
