package broadcast

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCheckpointTTL = 24 * time.Hour

// CheckpointStore records per-run broadcast progress in Redis so an
// interrupted run can resume past the already-delivered prefix.
type CheckpointStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewCheckpointStore builds a Redis-backed checkpoint store.
func NewCheckpointStore(addr, password, prefix string, ttl time.Duration) *CheckpointStore {
	if prefix == "" {
		prefix = "autofilter:broadcast"
	}
	if ttl <= 0 {
		ttl = defaultCheckpointTTL
	}
	return &CheckpointStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *CheckpointStore) key(runID string) string {
	return fmt.Sprintf("%s:%s", c.prefix, runID)
}

// Processed returns how many recipients the run has already handled.
func (c *CheckpointStore) Processed(ctx context.Context, runID string) (int, error) {
	n, err := c.client.Get(ctx, c.key(runID)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Mark records the count of recipients handled so far.
func (c *CheckpointStore) Mark(ctx context.Context, runID string, processed int) error {
	return c.client.Set(ctx, c.key(runID), processed, c.ttl).Err()
}

// Clear removes the run's checkpoint once the tally has been reported.
func (c *CheckpointStore) Clear(ctx context.Context, runID string) error {
	if err := c.client.Del(ctx, c.key(runID)).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}
