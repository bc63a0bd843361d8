package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "cache:"

// RedisStore persists cache entries in Redis. Any backend failure is
// logged and surfaced as ErrMiss so the caller degrades to refetching;
// the gateway must keep working with no reachable Redis at all.
type RedisStore struct {
	client redis.Cmdable
	logger *logrus.Logger
}

func NewRedisStore(client redis.Cmdable, logger *logrus.Logger) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisStore{client: client, logger: logger}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("cache read failed, treating as miss")
		return nil, ErrMiss
	}

	payload, err := decodeEntry(raw, time.Now())
	if err != nil {
		if err != ErrMiss {
			s.logger.WithError(err).WithField("key", key).Warn("corrupt cache entry, treating as miss")
		}
		return nil, ErrMiss
	}
	return payload, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	raw, err := encodeEntry(payload, ttl, time.Now())
	if err != nil {
		return err
	}
	// The backend TTL gets a margin over the envelope TTL; expiry is
	// decided by the envelope, the backend TTL only bounds growth.
	if err := s.client.Set(ctx, keyPrefix+key, raw, ttl+time.Minute).Err(); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("cache write failed")
		return fmt.Errorf("cache put %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("cache clear %s: %w", key, err)
	}
	return nil
}
