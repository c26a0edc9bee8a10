package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// UnknownClientAddress stands in for callers whose address cannot be resolved
const UnknownClientAddress = "0.0.0.0"

// RateLimitPolicy bounds accepted submissions per client
type RateLimitPolicy struct {
	MaxRequests int
	Window      time.Duration
}

// DefaultRateLimitPolicy allows 10 submissions per client per hour
func DefaultRateLimitPolicy() RateLimitPolicy {
	return RateLimitPolicy{
		MaxRequests: 10,
		Window:      time.Hour,
	}
}

// RateLimiter enforces a sliding window over a RateStore.
// There is no cross-request locking: concurrent requests from one client may
// over- or under-count slightly.
type RateLimiter struct {
	store  RateStore
	policy RateLimitPolicy
	logger *zap.Logger
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(store RateStore, policy RateLimitPolicy, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		store:  store,
		policy: policy,
		logger: logger,
	}
}

// ClientKey derives the opaque store key for a caller address
func ClientKey(addr string) string {
	if addr == "" {
		addr = UnknownClientAddress
	}
	sum := sha256.Sum256([]byte(addr))
	return hex.EncodeToString(sum[:])
}

// Check loads and prunes the client's window. It returns ErrRateLimited when the
// window is full; the rejected attempt is not recorded.
func (l *RateLimiter) Check(ctx context.Context, key string, now time.Time) (*RateWindow, error) {
	window := &RateWindow{Key: key, Timestamps: l.load(ctx, key)}
	window.prune(now, l.policy.Window)

	if window.Count() >= l.policy.MaxRequests {
		return window, ErrRateLimited
	}
	return window, nil
}

// Record appends now to the window and persists it
func (l *RateLimiter) Record(ctx context.Context, window *RateWindow, now time.Time) error {
	window.Timestamps = append(window.Timestamps, now.Unix())

	data, err := encodeTimestamps(window.Timestamps)
	if err != nil {
		return fmt.Errorf("failed to encode rate window: %w", err)
	}
	if err := l.store.Put(ctx, window.Key, data); err != nil {
		return fmt.Errorf("failed to store rate window: %w", err)
	}
	return nil
}

// load never fails: missing, unreadable and corrupt records all count as empty
func (l *RateLimiter) load(ctx context.Context, key string) []int64 {
	data, err := l.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			l.logger.Warn("Failed to read rate window, treating as empty",
				zap.String("client_key", key),
				zap.Error(err))
		}
		return []int64{}
	}

	timestamps, err := decodeTimestamps(data)
	if err != nil {
		l.logger.Warn("Discarding corrupt rate window",
			zap.String("client_key", key),
			zap.Error(err))
		return []int64{}
	}
	return timestamps
}
