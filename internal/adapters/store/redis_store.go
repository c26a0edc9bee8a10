package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mikey/contact-relay/internal/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore keeps rate windows in Redis with a TTL, so no cleanup task is needed
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore wraps an existing client. The caller should have pinged it.
func NewRedisStore(rdb *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		rdb:    rdb,
		prefix: strings.Trim(prefix, ":"),
		ttl:    ttl,
		logger: logger,
	}
}

// DialRedis creates a client and verifies it can reach the server
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Get retrieves the record for key
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get rate window: %w", err)
	}
	return data, nil
}

// Put stores the record for key, refreshing its TTL
func (s *RedisStore) Put(ctx context.Context, key string, data []byte) error {
	if err := s.rdb.Set(ctx, s.key(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set rate window: %w", err)
	}
	return nil
}

// Stop closes the client
func (s *RedisStore) Stop() {
	if err := s.rdb.Close(); err != nil {
		s.logger.Error("Failed to close redis client", zap.Error(err))
	}
}

func (s *RedisStore) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}
