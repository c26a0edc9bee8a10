package factory

import (
	"github.com/mikey/contact-relay/internal/adapters/httpapi"
	"github.com/mikey/contact-relay/internal/allowlist"
	"github.com/mikey/contact-relay/internal/config"
	"github.com/mikey/contact-relay/internal/core"
	"github.com/mikey/contact-relay/internal/metrics"
	"github.com/mikey/contact-relay/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// ServerFactory creates the HTTP front end
type ServerFactory struct {
	cfg       *config.Config
	logger    *zap.Logger
	service   *core.ContactService
	collector *metrics.Collector
	gatherer  prometheus.Gatherer
}

// NewServerFactory creates a new server factory
func NewServerFactory(
	cfg *config.Config,
	logger *zap.Logger,
	service *core.ContactService,
	collector *metrics.Collector,
	gatherer prometheus.Gatherer,
) *ServerFactory {
	return &ServerFactory{
		cfg:       cfg,
		logger:    logger,
		service:   service,
		collector: collector,
		gatherer:  gatherer,
	}
}

// CreateContactServer creates the HTTP server based on the configuration
func (f *ServerFactory) CreateContactServer() (ports.ContactServer, error) {
	serverCfg, err := f.cfg.GetServer()
	if err != nil {
		return nil, err
	}
	ts, err := f.cfg.GetTurnstile()
	if err != nil {
		return nil, err
	}

	// Local development origins are only trusted without bot protection
	origins := allowlist.NewChecker(f.cfg.GetCORS().AllowedOrigins, !ts.Enabled, f.logger)

	deps := httpapi.RouterDeps{
		Service:  f.service,
		Origins:  origins,
		Server:   serverCfg,
		Logger:   f.logger,
		Statuses: f.collector,
	}
	if mc := f.cfg.GetMetrics(); mc.Enabled {
		deps.MetricsPath = mc.Path
		deps.MetricsHandler = metrics.Handler(f.gatherer)
	}

	return httpapi.NewServer(serverCfg, httpapi.NewRouter(deps), f.logger), nil
}
