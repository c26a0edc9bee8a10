// Package turnstile verifies Cloudflare Turnstile tokens through the siteverify API.
package turnstile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mikey/contact-relay/internal/core"
	"go.uber.org/zap"
)

// DefaultVerifyURL is Cloudflare's siteverify endpoint
const DefaultVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// maxResponseBytes caps how much of the provider response is read
const maxResponseBytes = 64 * 1024

// siteverifyResponse is the subset of the siteverify reply we use
type siteverifyResponse struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

// Client is an implementation of core.Verifier for Cloudflare Turnstile
type Client struct {
	httpClient *http.Client
	secretKey  string
	verifyURL  string
	logger     *zap.Logger
}

// NewClient creates a new Turnstile client. timeout bounds the whole exchange.
func NewClient(secretKey, verifyURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if verifyURL == "" {
		verifyURL = DefaultVerifyURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		secretKey:  secretKey,
		verifyURL:  verifyURL,
		logger:     logger,
	}
}

// Verify posts token and remoteIP to siteverify. Any failure to get a readable
// answer is returned as an error; a readable answer is never an error, even
// when it rejects the token.
func (c *Client) Verify(ctx context.Context, token, remoteIP string) (*core.VerificationResult, error) {
	form := url.Values{
		"secret":   {c.secretKey},
		"response": {token},
		"remoteip": {remoteIP},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("siteverify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("siteverify returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read siteverify response: %w", err)
	}

	var parsed siteverifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		// an unparseable reply carries no success flag
		c.logger.Warn("Unparseable siteverify response", zap.Error(err), zap.Int("size", len(body)))
		return &core.VerificationResult{Success: false}, nil
	}

	c.logger.Debug("Siteverify answered",
		zap.Bool("success", parsed.Success),
		zap.String("hostname", parsed.Hostname),
		zap.Strings("error_codes", parsed.ErrorCodes))

	return &core.VerificationResult{
		Success:    parsed.Success,
		Hostname:   parsed.Hostname,
		ErrorCodes: parsed.ErrorCodes,
	}, nil
}
