package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps refresh tokens with a TTL. Redis-backed in production,
// faked in tests.
type SessionStore interface {
	SaveRefreshToken(ctx context.Context, token string, userID int64, ttl time.Duration) error
	ResolveRefreshToken(ctx context.Context, token string) (int64, error)
	DeleteRefreshToken(ctx context.Context, token string) error
}

type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) SaveRefreshToken(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	err := s.client.Set(ctx, "refresh:"+token, strconv.FormatInt(userID, 10), ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) ResolveRefreshToken(ctx context.Context, token string) (int64, error) {
	val, err := s.client.Get(ctx, "refresh:"+token).Result()
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

func (s *RedisSessionStore) DeleteRefreshToken(ctx context.Context, token string) error {
	return s.client.Del(ctx, "refresh:"+token).Err()
}
