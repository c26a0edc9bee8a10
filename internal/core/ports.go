package core

import (
	"context"
	"errors"
	"time"
)

// ErrRecordNotFound is returned by a RateStore when no record exists for a key
var ErrRecordNotFound = errors.New("rate record not found")

// RateStore persists opaque rate-limit records keyed by client key
type RateStore interface {
	// Get returns the stored record or ErrRecordNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces the stored record
	Put(ctx context.Context, key string, data []byte) error
}

// Verifier exchanges a human-verification token for a verdict.
// A returned error means the provider could not be reached or understood.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) (*VerificationResult, error)
}

// Mailer delivers an outbound message
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// Metrics receives pipeline observations
type Metrics interface {
	RecordOutcome(outcome string)
	RecordVerificationLatency(d time.Duration)
	RecordMailLatency(d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) RecordOutcome(string)                    {}
func (nopMetrics) RecordVerificationLatency(time.Duration) {}
func (nopMetrics) RecordMailLatency(time.Duration)         {}
