package metrics

import (
	"context"

	"github.com/leadflow/role-service/internal/core/domain"
	"github.com/leadflow/role-service/internal/core/ports"
)

type instrumentedLimiter struct {
	next ports.RateLimiter
}

// InstrumentLimiter counts every verdict of next in RateLimitDecisionsTotal.
func InstrumentLimiter(next ports.RateLimiter) ports.RateLimiter {
	return &instrumentedLimiter{next: next}
}

func (l *instrumentedLimiter) Allow(ctx context.Context, requesterID string) domain.RateDecision {
	d := l.next.Allow(ctx, requesterID)
	RateLimitDecisionsTotal.WithLabelValues(d.Verdict.String()).Inc()
	return d
}
