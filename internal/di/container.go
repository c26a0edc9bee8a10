package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/contact-relay/internal/config"
	"github.com/mikey/contact-relay/internal/core"
	"github.com/mikey/contact-relay/internal/factory"
	"github.com/mikey/contact-relay/internal/logging"
	"github.com/mikey/contact-relay/internal/metrics"
	"github.com/mikey/contact-relay/internal/ports"
	"github.com/mikey/contact-relay/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register metrics
	if err := container.Provide(prometheus.NewRegistry); err != nil {
		return nil, err
	}
	if err := container.Provide(func(reg *prometheus.Registry) *metrics.Collector {
		return metrics.NewCollector(reg)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(reg *prometheus.Registry) prometheus.Gatherer {
		return reg
	}); err != nil {
		return nil, err
	}

	if err := providePipeline(container); err != nil {
		return nil, err
	}

	// Register service metrics
	if err := container.Provide(func(c *metrics.Collector) core.Metrics {
		return c
	}); err != nil {
		return nil, err
	}

	// Register contact server
	if err := container.Provide(factory.NewServerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.ServerFactory) (ports.ContactServer, error) {
		return f.CreateContactServer()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// providePipeline registers everything ContactService needs apart from
// configuration, logger and metrics
func providePipeline(container *dig.Container) error {
	// Register factories
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewVerifierFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewMailerFactory); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}

	// Register rate store
	if err := container.Provide(func(f *factory.StoreFactory) (core.RateStore, error) {
		return f.CreateRateStore()
	}); err != nil {
		return err
	}

	// Register rate limiter
	if err := container.Provide(func(f *factory.StoreFactory, store core.RateStore, logger *zap.Logger) (*core.RateLimiter, error) {
		policy, err := f.GetRateLimitPolicy()
		if err != nil {
			return nil, err
		}
		return core.NewRateLimiter(store, policy, logger), nil
	}); err != nil {
		return err
	}

	// Register verifier and validator
	if err := container.Provide(func(f *factory.VerifierFactory) (core.Verifier, error) {
		return f.CreateVerifier()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.VerifierFactory, tp *utils.TextProcessor) *core.Validator {
		return core.NewValidator(tp, f.IsVerificationEnabled())
	}); err != nil {
		return err
	}

	// Register mailer
	if err := container.Provide(func(f *factory.MailerFactory) (core.Mailer, error) {
		return f.CreateMailer()
	}); err != nil {
		return err
	}

	// Register service config
	if err := container.Provide(func(vf *factory.VerifierFactory, mf *factory.MailerFactory) (core.ServiceConfig, error) {
		identity, err := mf.GetMailIdentity()
		if err != nil {
			return core.ServiceConfig{}, err
		}
		return core.ServiceConfig{
			VerificationEnabled: vf.IsVerificationEnabled(),
			Identity:            identity,
		}, nil
	}); err != nil {
		return err
	}

	// Register contact service
	return container.Provide(core.NewContactService)
}
