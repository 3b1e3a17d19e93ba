package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sessionkit/cookie-session/internal/config"
)

const denylistPrefix = "auth:denylist:"

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided URL. A nil Redis is returned
// when no URL is configured.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	if cfg.URL == "" {
		logger.Info("REDIS_URL not provided; token denylist disabled")
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}, nil
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// TokenDenylist stores revoked token IDs in Redis until they would have expired.
type TokenDenylist struct {
	client redis.Cmdable
}

// NewTokenDenylist builds a denylist on top of the client.
func NewTokenDenylist(client redis.Cmdable) *TokenDenylist {
	return &TokenDenylist{client: client}
}

// Revoke marks jti as revoked until the given time.
func (d *TokenDenylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, denylistPrefix+jti, "1", ttl).Err()
}

// IsRevoked reports whether jti was revoked.
func (d *TokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.client.Exists(ctx, denylistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
