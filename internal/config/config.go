package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DotEnvFile is loaded from the working directory when present
const DotEnvFile = ".env"

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance from config.yaml, .env and the
// process environment, in increasing order of precedence
func New() (*Config, error) {
	if err := LoadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/contact-relay/")
	v.AddConfigPath("$HOME/.contact-relay")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromFile creates a configuration instance from an explicit config file
func NewFromFile(path string) (*Config, error) {
	if err := LoadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults and no environment binding
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// LoadDotEnv exports the variables of a dotenv file into the process
// environment. Variables that are already set are left untouched, and a
// missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	env := viper.New()
	env.SetConfigFile(path)
	env.SetConfigType("env")
	if err := env.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	for _, key := range env.AllKeys() {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, env.GetString(key)); err != nil {
			return fmt.Errorf("failed to export %s: %w", name, err)
		}
	}
	return nil
}

// newViper returns a viper bound to the environment: the key mail.from_address
// is read from MAIL_FROM_ADDRESS
func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.listen_address", "0.0.0.0:8080")
	v.SetDefault("server.path", "/")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "20s")
	v.SetDefault("server.max_body_bytes", 64*1024)
	v.SetDefault("server.trust_proxy_headers", false)

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{"https://joshuaharbert.com"})

	// Turnstile defaults
	v.SetDefault("turnstile.enabled", "true")
	v.SetDefault("turnstile.secret_key", "")
	v.SetDefault("turnstile.verify_url", "https://challenges.cloudflare.com/turnstile/v0/siteverify")
	v.SetDefault("turnstile.timeout", "10s")

	// Mail defaults
	v.SetDefault("mail.host", "smtp.gmail.com")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from_address", "")
	v.SetDefault("mail.from_name", "Contact Form")
	v.SetDefault("mail.to_address", "")
	v.SetDefault("mail.encryption", "starttls")
	v.SetDefault("mail.helo_name", "")
	v.SetDefault("mail.timeout", "30s")

	// Rate limit defaults
	v.SetDefault("ratelimit.store", "file")
	v.SetDefault("ratelimit.max_requests", 10)
	v.SetDefault("ratelimit.window", "1h")
	v.SetDefault("ratelimit.file_dir", filepath.Join(os.TempDir(), "contact_rate_limits"))
	v.SetDefault("ratelimit.sqlite_path", "/data/contact_rate_limits.db")
	v.SetDefault("ratelimit.mysql_dsn", "user:password@tcp(localhost:3306)/contact_relay")
	v.SetDefault("ratelimit.redis_addr", "localhost:6379")
	v.SetDefault("ratelimit.redis_password", "")
	v.SetDefault("ratelimit.redis_db", 0)
	v.SetDefault("ratelimit.redis_prefix", "contact:ratelimit")
	v.SetDefault("ratelimit.cleanup_frequency", "1h")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetBool gets a boolean value from the configuration. Besides the strconv
// forms it accepts yes/no and on/off.
func (c *Config) GetBool(key string) bool {
	return parseBool(c.v.GetString(key), false)
}

// GetStringSlice gets a list value. Environment values are split on commas
// and whitespace.
func (c *Config) GetStringSlice(key string) []string {
	var out []string
	for _, item := range c.v.GetStringSlice(key) {
		out = append(out, splitList(item)...)
	}
	return out
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}

func parseBool(s string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "yes", "y", "on":
		return true
	case "0", "f", "false", "no", "n", "off", "":
		return false
	default:
		return fallback
	}
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}
