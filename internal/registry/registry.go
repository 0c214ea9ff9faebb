// Package registry tracks which users currently hold an active session, as
// an injected service instead of process-wide state so it can be swapped
// per-test and shared across instances through Redis.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long a presence entry survives without a heartbeat.
const DefaultTTL = 5 * time.Minute

// Registry records user presence. Register refreshes the TTL, so calling it
// on every authenticated request doubles as a heartbeat.
type Registry interface {
	Register(ctx context.Context, userID string) error
	Unregister(ctx context.Context, userID string) error
	IsOnline(ctx context.Context, userID string) (bool, error)
}

type redisRegistry struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis builds a Redis-backed registry. A zero ttl falls back to
// DefaultTTL.
func NewRedis(rdb *redis.Client, ttl time.Duration) Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &redisRegistry{rdb: rdb, ttl: ttl}
}

func key(userID string) string {
	return fmt.Sprintf("evcare:online:%s", userID)
}

func (r *redisRegistry) Register(ctx context.Context, userID string) error {
	return r.rdb.Set(ctx, key(userID), time.Now().Unix(), r.ttl).Err()
}

func (r *redisRegistry) Unregister(ctx context.Context, userID string) error {
	return r.rdb.Del(ctx, key(userID)).Err()
}

func (r *redisRegistry) IsOnline(ctx context.Context, userID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, key(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
