package factory

import (
	"github.com/mikey/contact-relay/internal/adapters/turnstile"
	"github.com/mikey/contact-relay/internal/config"
	"github.com/mikey/contact-relay/internal/core"
	"go.uber.org/zap"
)

// VerifierFactory creates the human verification client
type VerifierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewVerifierFactory creates a new verifier factory
func NewVerifierFactory(cfg *config.Config, logger *zap.Logger) *VerifierFactory {
	return &VerifierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateVerifier creates a Turnstile client, or returns nil when verification
// is disabled
func (f *VerifierFactory) CreateVerifier() (core.Verifier, error) {
	ts, err := f.cfg.GetTurnstile()
	if err != nil {
		return nil, err
	}
	if !ts.Enabled {
		f.logger.Warn("Turnstile verification is disabled; localhost origins are allowed")
		return nil, nil
	}
	if ts.SecretKey == "" {
		// Siteverify rejects an empty secret, so every submission will fail
		f.logger.Warn("turnstile.secret_key is empty")
	}
	return turnstile.NewClient(ts.SecretKey, ts.VerifyURL, ts.Timeout, f.logger), nil
}

// IsVerificationEnabled returns whether submissions need a Turnstile token
func (f *VerifierFactory) IsVerificationEnabled() bool {
	ts, err := f.cfg.GetTurnstile()
	return err != nil || ts.Enabled
}
