package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/leadflow/role-service/internal/core/domain"
)

const rateLimitPrefix = "ratelimit:assign_role:"

// rollingWindow reads, resets, checks and increments in one server-side step.
// KEYS[1] = counter hash; ARGV = now_ms, window_ms, limit.
// Returns {allowed, count, window_start_ms}.
var rollingWindow = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local count = tonumber(redis.call('HGET', KEYS[1], 'count') or '0')
local start = tonumber(redis.call('HGET', KEYS[1], 'window_start') or '0')

if start == 0 or now - start > window then
  redis.call('HSET', KEYS[1], 'count', 1, 'window_start', now)
  return {1, 1, now}
end

if count >= limit then
  return {0, count, start}
end

count = redis.call('HINCRBY', KEYS[1], 'count', 1)
return {1, count, start}
`)

// RateLimiter is a per-requester rolling-window counter. Counter records
// persist indefinitely; a window older than the configured length is reset
// on the next call.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow never reports allowed on a store error.
func (l *RateLimiter) Allow(ctx context.Context, requesterID string) domain.RateDecision {
	args := []any{l.now().UnixMilli(), l.window.Milliseconds(), l.limit}
	res, err := rollingWindow.Run(ctx, l.client, []string{rateLimitPrefix + requesterID}, args...).Int64Slice()
	if err != nil {
		return domain.RateDecision{Verdict: domain.RateDeniedUnavailable, Err: fmt.Errorf("rate limit: %w", err)}
	}
	if len(res) != 3 {
		return domain.RateDecision{Verdict: domain.RateDeniedUnavailable, Err: fmt.Errorf("rate limit: unexpected reply %v", res)}
	}

	d := domain.RateDecision{
		Verdict:     domain.RateDeniedQuota,
		Count:       int(res[1]),
		WindowStart: time.UnixMilli(res[2]).UTC(),
	}
	if res[0] == 1 {
		d.Verdict = domain.RateAllowed
	}
	return d
}
