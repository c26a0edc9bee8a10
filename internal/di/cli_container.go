package di

import (
	"flag"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/contact-relay/internal/config"
	"github.com/mikey/contact-relay/internal/core"
	"github.com/mikey/contact-relay/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Submission flags
	Name    string
	Email   string
	Message string
	Token   string
	IP      string

	// Behaviour flags
	SkipVerify bool
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	return ParseFlagSet(flag.CommandLine, nil)
}

// ParseFlagSet registers the CLI flags on fs and parses args. A nil args
// parses os.Args[1:] when fs is flag.CommandLine.
func ParseFlagSet(fs *flag.FlagSet, args []string) *CLIFlags {
	flags := &CLIFlags{}

	// Submission flags
	fs.StringVar(&flags.Name, "name", "", "Submitter name")
	fs.StringVar(&flags.Email, "email", "", "Submitter email address (used as Reply-To)")
	fs.StringVar(&flags.Message, "message", "", "Message body")
	fs.StringVar(&flags.Token, "token", "", "Turnstile response token")
	fs.StringVar(&flags.IP, "ip", "127.0.0.1", "Client address used for verification and rate limiting")

	// Behaviour flags
	fs.BoolVar(&flags.SkipVerify, "skip-verify", false, "Skip Turnstile verification")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (defaults to the usual search path)")

	if args == nil && fs == flag.CommandLine {
		flag.Parse()
	} else {
		fs.Parse(args)
	}
	return flags
}

// FormInput returns the submission described by the flags
func (f *CLIFlags) FormInput() core.FormInput {
	return core.FormInput{
		Name:    f.Name,
		Email:   f.Email,
		Message: f.Message,
		Token:   f.Token,
	}
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		cfg, err := loadCLIConfig(flags)
		if err != nil {
			return nil, err
		}
		if used := cfg.GetViper().ConfigFileUsed(); used != "" {
			logger.Info("Loaded configuration from file", zap.String("file", used))
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	// No metrics endpoint for one-shot sends
	if err := container.Provide(func() core.Metrics { return nil }); err != nil {
		return nil, err
	}

	if err := providePipeline(container); err != nil {
		return nil, err
	}

	return container, nil
}

// loadCLIConfig reads the server configuration and applies the CLI overrides:
// a private in-memory rate store and, optionally, no verification
func loadCLIConfig(flags *CLIFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.ConfigFile != "" {
		cfg, err = config.NewFromFile(flags.ConfigFile)
	} else {
		cfg, err = config.New()
	}
	if err != nil {
		return nil, err
	}

	v := cfg.GetViper()
	v.Set("ratelimit.store", "memory")
	v.Set("ratelimit.cleanup_frequency", "0s")
	if flags.SkipVerify {
		v.Set("turnstile.enabled", "false")
	}
	return config.NewFromViper(v), nil
}
