package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store dedupes consumed messages with a redis SetNX window.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// MessageKey identifies one kafka message by its coordinates.
func (s *Store) MessageKey(topic string, partition int, offset int64) string {
	return fmt.Sprintf("seen:%s:%d:%d", topic, partition, offset)
}

// Seen marks the key and reports whether it had been marked before within the
// TTL window.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}
