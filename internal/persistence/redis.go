package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/tokenchain/internal/config"
	"github.com/spec-kit/tokenchain/internal/domain"
)

// Redis wraps the go-redis client and stores stage payloads under
// "<prefix>:<stage>".
type Redis struct {
	Client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis connects to Redis using the provided configuration. It returns nil
// when no address is configured.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Debug("REDIS_ADDR not provided; redis sink disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return NewRedisWithClient(client, cfg.KeyPrefix, cfg.TokenTTL())
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "tokenchain"
	}
	return &Redis{Client: client, prefix: prefix, ttl: ttl}
}

// Key returns the key a stage payload is stored under.
func (r *Redis) Key(stage domain.Stage) string {
	return r.prefix + ":" + string(stage)
}

// Save implements Sink.
func (r *Redis) Save(ctx context.Context, payload domain.StagePayload) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Set(ctx, r.Key(payload.Stage), payload.Body, r.ttl).Err()
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}
