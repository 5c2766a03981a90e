package leaderelection

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Elector holds a redis lease designating exactly one instance as allowed to
// run periodic jobs. IsLeader is consulted immediately before each tick; it
// never gates an in-flight tick, so losing the lease stops future scheduling
// only.
type Elector struct {
	client *redis.Client
	key    string
	id     string
	ttl    time.Duration
	logger *slog.Logger
}

func New(client *redis.Client, key string, ttl time.Duration, logger *slog.Logger) *Elector {
	return &Elector{
		client: client,
		key:    key,
		id:     uuid.NewString(),
		ttl:    ttl,
		logger: logger,
	}
}

// IsLeader tries to acquire or renew the lease and reports whether this
// instance holds it. Any redis failure reads as "not leader": skipping a tick
// is cheaper than two instances publishing concurrently.
func (e *Elector) IsLeader(ctx context.Context) bool {
	acquired, err := e.client.SetNX(ctx, e.key, e.id, e.ttl).Result()
	if err != nil {
		e.logger.ErrorContext(ctx, "leader lease acquisition failed", "error", err)
		return false
	}
	if acquired {
		return true
	}

	holder, err := e.client.Get(ctx, e.key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			e.logger.ErrorContext(ctx, "leader lease lookup failed", "error", err)
		}
		return false
	}
	if holder != e.id {
		return false
	}

	if err := e.client.Expire(ctx, e.key, e.ttl).Err(); err != nil {
		e.logger.ErrorContext(ctx, "leader lease renewal failed", "error", err)
		return false
	}
	return true
}

// Resign drops the lease if this instance holds it, letting another instance
// take over without waiting out the TTL. Called on shutdown.
func (e *Elector) Resign(ctx context.Context) {
	holder, err := e.client.Get(ctx, e.key).Result()
	if err != nil || holder != e.id {
		return
	}
	if err := e.client.Del(ctx, e.key).Err(); err != nil {
		e.logger.ErrorContext(ctx, "leader lease release failed", "error", err)
	}
}
