package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/contact-relay/internal/adapters/store"
	"github.com/mikey/contact-relay/internal/config"
	"github.com/mikey/contact-relay/internal/core"
	"go.uber.org/zap"
)

// StoreFactory creates rate window stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateRateStore creates a rate store based on the configuration.
// Records expire after one rate window.
func (f *StoreFactory) CreateRateStore() (core.RateStore, error) {
	rl, err := f.cfg.GetRateLimit()
	if err != nil {
		return nil, err
	}

	f.logger.Info("Creating rate store", zap.String("type", rl.Store))

	switch rl.Store {
	case "file":
		return store.NewFileStore(rl.FileDir, f.logger)
	case "memory":
		return store.NewMemoryStore(f.logger, rl.Window, rl.CleanupFrequency), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(rl.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return store.NewSQLiteStore(rl.SQLitePath, f.logger, rl.Window, rl.CleanupFrequency)
	case "mysql":
		return store.NewMySQLStore(rl.MySQLDSN, f.logger, rl.Window, rl.CleanupFrequency)
	case "redis":
		rdb, err := store.DialRedis(context.Background(), rl.RedisAddr, rl.RedisPassword, rl.RedisDB)
		if err != nil {
			return nil, err
		}
		return store.NewRedisStore(rdb, rl.RedisPrefix, rl.Window, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported rate store type: %s", rl.Store)
	}
}

// GetRateLimitPolicy returns the configured rate limit policy
func (f *StoreFactory) GetRateLimitPolicy() (core.RateLimitPolicy, error) {
	rl, err := f.cfg.GetRateLimit()
	if err != nil {
		return core.RateLimitPolicy{}, err
	}
	if rl.MaxRequests <= 0 {
		return core.RateLimitPolicy{}, fmt.Errorf("ratelimit.max_requests must be positive, got %d", rl.MaxRequests)
	}
	if rl.Window <= 0 {
		return core.RateLimitPolicy{}, fmt.Errorf("ratelimit.window must be positive, got %s", rl.Window)
	}
	return core.RateLimitPolicy{
		MaxRequests: rl.MaxRequests,
		Window:      rl.Window,
	}, nil
}
