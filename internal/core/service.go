package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/contact-relay/internal/logging"
)

// ServiceConfig holds the settings the contact pipeline needs
type ServiceConfig struct {
	VerificationEnabled bool
	Identity            MailIdentity
}

// ContactService runs a submission through rate limiting, validation,
// human verification and mail delivery
type ContactService struct {
	limiter   *RateLimiter
	validator *Validator
	verifier  Verifier
	mailer    Mailer
	metrics   Metrics
	logger    *zap.Logger
	cfg       ServiceConfig
	now       func() time.Time
}

// NewContactService creates a new contact service. verifier may be nil when
// verification is disabled; metrics may be nil.
func NewContactService(
	limiter *RateLimiter,
	validator *Validator,
	verifier Verifier,
	mailer Mailer,
	metrics Metrics,
	logger *zap.Logger,
	cfg ServiceConfig,
) *ContactService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &ContactService{
		limiter:   limiter,
		validator: validator,
		verifier:  verifier,
		mailer:    mailer,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Submit handles one submission from clientAddr. Any returned error is an
// *Error whose Message is safe to show the caller.
func (s *ContactService) Submit(ctx context.Context, clientAddr string, in FormInput) error {
	if clientAddr == "" {
		clientAddr = UnknownClientAddress
	}
	key := ClientKey(clientAddr)
	logger := logging.FromContext(ctx, s.logger).With(zap.String("client_key", key))
	now := s.now()

	window, err := s.limiter.Check(ctx, key, now)
	if err != nil {
		logger.Warn("Rejecting rate limited client", zap.Int("window_count", window.Count()))
		return s.fail(err)
	}

	sub, err := s.validator.Validate(in)
	if err != nil {
		logger.Info("Rejecting invalid submission", zap.String("reason", AsError(err).Message))
		return s.fail(err)
	}

	if s.cfg.VerificationEnabled {
		if err := s.verify(ctx, logger, sub, clientAddr); err != nil {
			return s.fail(err)
		}
	}

	msg := ComposeMessage(sub, s.cfg.Identity)
	start := time.Now()
	err = s.mailer.Send(ctx, msg)
	s.metrics.RecordMailLatency(time.Since(start))
	if err != nil {
		// SMTP detail stays in the log
		logger.Error("Failed to send contact message", zap.Error(err))
		return s.fail(ErrMailDelivery.Wrap(err))
	}

	if err := s.limiter.Record(ctx, window, now); err != nil {
		logger.Error("Failed to record submission for rate limiting", zap.Error(err))
	}

	logger.Info("Relayed contact message", zap.Int("window_count", window.Count()))
	s.metrics.RecordOutcome("sent")
	return nil
}

func (s *ContactService) verify(ctx context.Context, logger *zap.Logger, sub *Submission, clientAddr string) error {
	if s.verifier == nil {
		return ErrVerificationUnavailable
	}

	start := time.Now()
	result, err := s.verifier.Verify(ctx, sub.Token, clientAddr)
	s.metrics.RecordVerificationLatency(time.Since(start))
	if err != nil {
		logger.Error("Human verification request failed", zap.Error(err))
		return ErrVerificationUnavailable.Wrap(err)
	}
	if !result.Success {
		logger.Info("Human verification rejected submission",
			zap.Strings("error_codes", result.ErrorCodes))
		return ErrVerificationRejected
	}
	return nil
}

func (s *ContactService) fail(err error) error {
	e := AsError(err)
	s.metrics.RecordOutcome(string(e.Kind))
	return e
}
