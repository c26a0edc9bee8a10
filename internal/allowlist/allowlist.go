package allowlist

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var localhostOrigin = regexp.MustCompile(`^https?://localhost(:\d+)?$`)

// Checker decides which browser origins may read contact form responses
type Checker struct {
	origins        []string
	allowLocalhost bool
	logger         *zap.Logger
}

// NewChecker creates a new origin checker. allowLocalhost additionally admits
// any http(s)://localhost[:port] origin, for local development.
func NewChecker(origins []string, allowLocalhost bool, logger *zap.Logger) *Checker {
	// Normalize origins (lowercase, no trailing slash)
	normalized := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimRight(strings.ToLower(strings.TrimSpace(origin)), "/")
		if origin != "" {
			normalized = append(normalized, origin)
		}
	}

	if logger != nil {
		logger.Info("Initialized origin allow-list",
			zap.Strings("origins", normalized),
			zap.Bool("allow_localhost", allowLocalhost))
	}

	return &Checker{
		origins:        normalized,
		allowLocalhost: allowLocalhost,
		logger:         logger,
	}
}

// IsAllowed checks if origin may be echoed back in Access-Control-Allow-Origin
func (c *Checker) IsAllowed(origin string) bool {
	if origin == "" {
		return false
	}

	lowered := strings.ToLower(origin)
	for _, allowed := range c.origins {
		if allowed == lowered {
			return true
		}
	}

	if c.allowLocalhost && localhostOrigin.MatchString(lowered) {
		if c.logger != nil {
			c.logger.Debug("Allowing localhost origin", zap.String("origin", origin))
		}
		return true
	}

	return false
}
