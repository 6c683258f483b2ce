package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/leadflow/role-service/internal/core/domain"
)

const dedupTTL = time.Hour

// DedupChecker provides idempotency checks for recorded role changes.
// Key format: dedup:role:<target_uid>:<role>:<unix_nano>
type DedupChecker struct {
	client *redis.Client
}

func NewDedupChecker(client *redis.Client) *DedupChecker {
	return &DedupChecker{client: client}
}

// IsDuplicate reports whether this exact role change has already been recorded.
func (d *DedupChecker) IsDuplicate(ctx context.Context, targetUID string, role domain.Role, at time.Time) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(targetUID, role, at)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this role change has been recorded (expires after dedupTTL).
func (d *DedupChecker) Mark(ctx context.Context, targetUID string, role domain.Role, at time.Time) error {
	return d.client.Set(ctx, d.key(targetUID, role, at), "1", dedupTTL).Err()
}

func (d *DedupChecker) key(targetUID string, role domain.Role, at time.Time) string {
	return fmt.Sprintf("dedup:role:%s:%s:%d", targetUID, role, at.UnixNano())
}
