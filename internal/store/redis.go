package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore handles Redis operations: refresh-token revocation and rate
// limit counters. Both are best-effort conveniences around the durable store,
// so the server runs without Redis in development.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Client exposes the underlying client for middleware that needs pipelines.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// revokedTokenKey returns the key marking a refresh token JTI as revoked.
func revokedTokenKey(jti string) string {
	return fmt.Sprintf("revoked:%s", jti)
}

// RevokeRefreshToken marks a refresh token JTI as revoked until it would have
// expired anyway.
func (s *RedisStore) RevokeRefreshToken(ctx context.Context, jti string, ttl time.Duration) error {
	return s.client.Set(ctx, revokedTokenKey(jti), "1", ttl).Err()
}

// IsRefreshTokenRevoked checks whether a refresh token JTI has been revoked.
func (s *RedisStore) IsRefreshTokenRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := s.client.Exists(ctx, revokedTokenKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// CountRequest increments the counter for key within a fixed window and
// returns the new count. The window TTL is set on first increment.
func (s *RedisStore) CountRequest(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := s.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
