// Package gateway assembles the HTTP surface of the booking service: the
// cross-cutting middleware, bearer authentication, per-client rate limiting,
// health and metrics endpoints, and the /api/v1 routes of every module.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aniemarie21/maes-laboratory-system/pkg/config"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/monitoring"
)

// APIPrefix is where module routes are mounted
const APIPrefix = "/api/v1"

// RouteRegistrar mounts a module's routes on the API subrouter
type RouteRegistrar interface {
	RegisterRoutes(api *mux.Router)
}

// Service is the HTTP front of the booking service
type Service struct {
	router  *mux.Router
	handler http.Handler
	server  *http.Server
	limiter *RateLimiter
	cfg     *config.Config
	logger  *logger.Logger
}

// NewService wires middleware and mounts every module under /api/v1
func NewService(
	cfg *config.Config,
	validator *TokenValidator,
	metrics *monitoring.MetricsCollector,
	health *monitoring.HealthManager,
	log *logger.Logger,
	modules ...RouteRegistrar,
) *Service {
	s := &Service{
		router: mux.NewRouter(),
		cfg:    cfg,
		logger: log,
	}

	if cfg.Monitoring.Enabled {
		if health != nil {
			s.router.Handle(cfg.Monitoring.HealthPath, health.HTTPHandler()).Methods(http.MethodGet)
		}
		if metrics != nil {
			s.router.Handle(cfg.Monitoring.MetricsPath, metrics.Handler()).Methods(http.MethodGet)
		}
	}

	api := s.router.PathPrefix(APIPrefix).Subrouter()
	api.Use(monitoring.NewMonitoringMiddleware(metrics, log).HTTPMiddleware)
	api.Use(authMiddleware(validator, log))
	if cfg.RateLimit.Enabled {
		s.limiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize)
		api.Use(rateLimitMiddleware(s.limiter, log))
	}
	for _, m := range modules {
		m.RegisterRoutes(api)
	}

	// Outermost wrappers run before routing so preflight requests and
	// panics are handled even when no route matches.
	var h http.Handler = s.router
	h = securityHeadersMiddleware(h)
	h = corsMiddleware(cfg.Server.AllowOrigins)(h)
	h = recoveryMiddleware(log)(h)
	if cfg.Monitoring.TracingEnabled {
		h = otelhttp.NewHandler(h, cfg.Monitoring.ServiceName)
	}
	s.handler = h

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}
	return s
}

// Handler returns the fully wrapped HTTP handler
func (s *Service) Handler() http.Handler {
	return s.handler
}

// Start serves until Shutdown is called. It returns nil after a clean shutdown.
func (s *Service) Start(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.StartCleanup(ctx, time.Duration(s.cfg.RateLimit.CleanupInterval)*time.Second)
	}

	s.logger.WithComponent("gateway").WithField("addr", s.server.Addr).Info("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Service) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
