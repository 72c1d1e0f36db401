// Package dedupe records webhook events that were already handled, so
// platform redeliveries do not start duplicate jobs.
package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 24 * time.Hour

// Store tracks processed webhook event ids in redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a Store. ttl <= 0 uses the default retention.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if client == nil {
		panic("dedupe: redis client required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

func key(provider, eventID string) string {
	return fmt.Sprintf("processed:%s:%s", provider, eventID)
}

// AlreadyProcessed checks if we've seen this provider event id.
func (s *Store) AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, key(provider, eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe: check processed: %w", err)
	}
	return n > 0, nil
}

// MarkProcessed records an event id for the provider, returning false if it
// was already present.
func (s *Store) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	ok, err := s.client.SetNX(ctx, key(provider, eventID), 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe: mark processed: %w", err)
	}
	return ok, nil
}
