package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mikey/contact-relay/internal/config"
	"github.com/mikey/contact-relay/internal/core"
	"go.uber.org/zap"
)

// RouterDeps holds what NewRouter needs
type RouterDeps struct {
	Service  Submitter
	Origins  OriginChecker
	Server   config.ServerConfig
	Logger   *zap.Logger
	Statuses StatusRecorder

	// MetricsPath and MetricsHandler are optional; the route is omitted when
	// MetricsHandler is nil
	MetricsPath    string
	MetricsHandler http.Handler
}

// NewRouter builds the HTTP routes.
//
// Middleware order: RealIP (when proxy headers are trusted) → request logger → recovery.
// CORS applies to the contact route and to 405 replies, including those for
// methods the router does not know.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	if deps.Server.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(NewRequestLogger(deps.Logger, deps.Statuses))
	r.Use(NewRecoveryMiddleware(deps.Logger))

	cors := NewCORSMiddleware(deps.Origins)
	r.MethodNotAllowed(cors(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, core.ErrMethodNotAllowed)
	})).ServeHTTP)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, core.ErrNotFound)
	})

	path := deps.Server.Path
	if path == "" {
		path = "/"
	}
	contact := NewContactHandler(deps.Service, deps.Server.MaxBodyBytes, deps.Logger)
	r.Group(func(r chi.Router) {
		r.Use(cors)
		r.Handle(path, contact)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w)
	})

	if deps.MetricsHandler != nil && deps.MetricsPath != "" {
		r.Method(http.MethodGet, deps.MetricsPath, deps.MetricsHandler)
	}

	return r
}

// Server is the contact relay HTTP server
type Server struct {
	cfg        config.ServerConfig
	handler    http.Handler
	logger     *zap.Logger
	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates a new server for handler
func NewServer(cfg config.ServerConfig, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
	}
}

// Start binds the listen address and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddress, err)
	}
	s.listener = ln

	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
		ErrorLog:     zap.NewStdLog(s.logger),
	}

	s.logger.Info("Contact relay starting", zap.String("address", ln.Addr().String()))

	// Start the server in a goroutine
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound address once started
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.cfg.ListenAddress
	}
	return s.listener.Addr().String()
}

// Stop drains in-flight requests for up to the configured shutdown timeout
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx := context.Background()
	if s.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
	}
	return s.httpServer.Shutdown(ctx)
}
