package config

import (
	"fmt"
	"time"
)

// ServerConfig represents the HTTP listener configuration
type ServerConfig struct {
	ListenAddress     string
	Path              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxBodyBytes      int64
	TrustProxyHeaders bool
}

// CORSConfig represents the cross-origin policy
type CORSConfig struct {
	AllowedOrigins []string
}

// TurnstileConfig represents the configuration for Cloudflare Turnstile
type TurnstileConfig struct {
	Enabled   bool
	SecretKey string
	VerifyURL string
	Timeout   time.Duration
}

// MailConfig represents the SMTP relay configuration
type MailConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
	ToAddress   string
	Encryption  string
	HeloName    string
	Timeout     time.Duration
}

// Addr returns host:port of the relay
func (m MailConfig) Addr() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

// RateLimitConfig represents the rate limiter and its backing store
type RateLimitConfig struct {
	Store            string
	MaxRequests      int
	Window           time.Duration
	FileDir          string
	SQLitePath       string
	MySQLDSN         string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisPrefix      string
	CleanupFrequency time.Duration
}

// MetricsConfig represents the Prometheus endpoint configuration
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// LoggingConfig represents the logger configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// GetServer returns the server configuration
func (c *Config) GetServer() (ServerConfig, error) {
	read, err := c.GetDuration("server.read_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	write, err := c.GetDuration("server.write_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	idle, err := c.GetDuration("server.idle_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	shutdown, err := c.GetDuration("server.shutdown_timeout")
	if err != nil {
		return ServerConfig{}, err
	}

	return ServerConfig{
		ListenAddress:     c.GetString("server.listen_address"),
		Path:              c.GetString("server.path"),
		ReadTimeout:       read,
		WriteTimeout:      write,
		IdleTimeout:       idle,
		ShutdownTimeout:   shutdown,
		MaxBodyBytes:      int64(c.GetInt("server.max_body_bytes")),
		TrustProxyHeaders: c.GetBool("server.trust_proxy_headers"),
	}, nil
}

// GetCORS returns the CORS configuration
func (c *Config) GetCORS() CORSConfig {
	return CORSConfig{
		AllowedOrigins: c.GetStringSlice("cors.allowed_origins"),
	}
}

// GetTurnstile returns the Turnstile configuration
func (c *Config) GetTurnstile() (TurnstileConfig, error) {
	timeout, err := c.GetDuration("turnstile.timeout")
	if err != nil {
		return TurnstileConfig{}, err
	}

	return TurnstileConfig{
		Enabled:   parseBool(c.GetString("turnstile.enabled"), true),
		SecretKey: c.GetString("turnstile.secret_key"),
		VerifyURL: c.GetString("turnstile.verify_url"),
		Timeout:   timeout,
	}, nil
}

// GetMail returns the mail configuration. The recipient defaults to the SMTP
// username, which is the mailbox the relay authenticates as.
func (c *Config) GetMail() (MailConfig, error) {
	timeout, err := c.GetDuration("mail.timeout")
	if err != nil {
		return MailConfig{}, err
	}

	mail := MailConfig{
		Host:        c.GetString("mail.host"),
		Port:        c.GetInt("mail.port"),
		Username:    c.GetString("mail.username"),
		Password:    c.GetString("mail.password"),
		FromAddress: c.GetString("mail.from_address"),
		FromName:    c.GetString("mail.from_name"),
		ToAddress:   c.GetString("mail.to_address"),
		Encryption:  c.GetString("mail.encryption"),
		HeloName:    c.GetString("mail.helo_name"),
		Timeout:     timeout,
	}
	if mail.ToAddress == "" {
		mail.ToAddress = mail.Username
	}
	return mail, nil
}

// GetRateLimit returns the rate limit configuration
func (c *Config) GetRateLimit() (RateLimitConfig, error) {
	window, err := c.GetDuration("ratelimit.window")
	if err != nil {
		return RateLimitConfig{}, err
	}
	cleanup, err := c.GetDuration("ratelimit.cleanup_frequency")
	if err != nil {
		return RateLimitConfig{}, err
	}

	return RateLimitConfig{
		Store:            c.GetString("ratelimit.store"),
		MaxRequests:      c.GetInt("ratelimit.max_requests"),
		Window:           window,
		FileDir:          c.GetString("ratelimit.file_dir"),
		SQLitePath:       c.GetString("ratelimit.sqlite_path"),
		MySQLDSN:         c.GetString("ratelimit.mysql_dsn"),
		RedisAddr:        c.GetString("ratelimit.redis_addr"),
		RedisPassword:    c.GetString("ratelimit.redis_password"),
		RedisDB:          c.GetInt("ratelimit.redis_db"),
		RedisPrefix:      c.GetString("ratelimit.redis_prefix"),
		CleanupFrequency: cleanup,
	}, nil
}

// GetMetrics returns the metrics configuration
func (c *Config) GetMetrics() MetricsConfig {
	return MetricsConfig{
		Enabled: c.GetBool("metrics.enabled"),
		Path:    c.GetString("metrics.path"),
	}
}

// GetLogging returns the logging configuration
func (c *Config) GetLogging() LoggingConfig {
	return LoggingConfig{
		Level:  c.GetString("logging.level"),
		Format: c.GetString("logging.format"),
	}
}
