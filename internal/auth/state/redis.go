package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "oauth_state:"

// RedisBackend shares state across instances behind a load balancer.
type RedisBackend struct {
	client redis.Cmdable
}

func NewRedisBackend(client redis.Cmdable) *RedisBackend {
	return &RedisBackend{client: client}
}

func (r *RedisBackend) Put(ctx context.Context, state string, entry Entry, ttl time.Duration) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode state entry: %w", err)
	}
	return r.client.Set(ctx, redisKeyPrefix+state, payload, ttl).Err()
}

func (r *RedisBackend) Take(ctx context.Context, state string) (*Entry, bool, error) {
	payload, err := r.client.GetDel(ctx, redisKeyPrefix+state).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, false, fmt.Errorf("failed to decode state entry: %w", err)
	}
	return &entry, true, nil
}
