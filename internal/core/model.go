package core

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Field limits, counted in characters after normalisation
const (
	MaxNameLength    = 100
	MaxEmailLength   = 255
	MaxMessageLength = 5000
)

// FormInput is the raw, untrusted contact form as received over HTTP
type FormInput struct {
	Name    string
	Email   string
	Message string
	Token   string
}

// Submission is a validated contact form submission
type Submission struct {
	Name    string
	Email   string
	Message string
	Token   string
}

// VerificationResult is the verdict returned by the human-verification provider
type VerificationResult struct {
	Success    bool
	Hostname   string
	ErrorCodes []string
}

// Message is an outbound plaintext email
type Message struct {
	FromAddress    string
	FromName       string
	To             string
	ReplyToAddress string
	ReplyToName    string
	Subject        string
	Body           string
}

// MailIdentity holds the fixed sender and recipient used for every relayed submission
type MailIdentity struct {
	FromAddress string
	FromName    string
	To          string
}

// RateWindow is the per-client sliding window of accepted submissions.
// Timestamps are Unix seconds in ascending order.
type RateWindow struct {
	Key        string
	Timestamps []int64
}

// prune drops every timestamp that is window or more seconds older than now,
// along with any that lie in the future
func (w *RateWindow) prune(now time.Time, window time.Duration) {
	cutoff := int64(window / time.Second)
	current := now.Unix()

	kept := w.Timestamps[:0]
	for _, ts := range w.Timestamps {
		if ts <= current && current-ts < cutoff {
			kept = append(kept, ts)
		}
	}
	w.Timestamps = kept
}

// Count returns the number of timestamps currently held
func (w *RateWindow) Count() int {
	return len(w.Timestamps)
}

// encodeTimestamps serialises timestamps as a JSON array of Unix seconds
func encodeTimestamps(timestamps []int64) ([]byte, error) {
	if timestamps == nil {
		timestamps = []int64{}
	}
	return json.Marshal(timestamps)
}

// decodeTimestamps parses a stored record. Anything that is not a JSON array of
// non-negative Unix seconds yields an error and the caller treats the record as empty.
func decodeTimestamps(data []byte) ([]int64, error) {
	var raw []float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	timestamps := make([]int64, 0, len(raw))
	for _, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v >= math.MaxInt64 {
			return nil, fmt.Errorf("timestamp %v out of range", v)
		}
		timestamps = append(timestamps, int64(v))
	}
	return timestamps, nil
}
