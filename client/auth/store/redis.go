package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every Redis transport failure, reads included.
var ErrRedisUnavailable = errors.New("redis unavailable")

const (
	accessField  = "access_token"
	refreshField = "refresh_token"
)

// RedisStore keeps both tokens in a single Redis hash so several processes can share one session.
type RedisStore struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

type RedisOption func(*RedisStore)

// WithTTL expires the stored pair after ttl; zero keeps it until cleared.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore creates a Redis backed store under key
func NewRedisStore(client redis.UniversalClient, key string, options ...RedisOption) *RedisStore {
	ret := &RedisStore{client: client, key: key}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

func (s *RedisStore) AccessToken(ctx context.Context) (string, bool, error) {
	pair, err := s.lookup(ctx)
	if err != nil || pair == nil {
		return "", false, err
	}
	return pair.AccessToken, true, nil
}

func (s *RedisStore) RefreshToken(ctx context.Context) (string, bool, error) {
	pair, err := s.lookup(ctx)
	if err != nil || pair == nil {
		return "", false, err
	}
	return pair.RefreshToken, true, nil
}

// lookup reads both fields with one HMGET; a partial hash counts as absent.
func (s *RedisStore) lookup(ctx context.Context) (*TokenPair, error) {
	values, err := s.client.HMGet(ctx, s.key, accessField, refreshField).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	pair := &TokenPair{}
	if len(values) == 2 {
		pair.AccessToken, _ = values[0].(string)
		pair.RefreshToken, _ = values[1].(string)
	}
	if !pair.Valid() {
		return nil, nil
	}
	return pair, nil
}

func (s *RedisStore) Set(ctx context.Context, access, refresh string) error {
	pair := &TokenPair{AccessToken: access, RefreshToken: refresh}
	if !pair.Valid() {
		return ErrInvalidTokenPair
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		pipe.HSet(ctx, s.key, accessField, access, refreshField, refresh)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
