// Package api provides the HTTP API of netdiag: JSON endpoints for every
// diagnostic, a WebSocket endpoint streaming sweep results, health and
// version information, Prometheus metrics and Swagger documentation.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/anstrom/netdiag/docs/swagger" // Import generated swagger docs
	apihandlers "github.com/anstrom/netdiag/internal/api/handlers"
	"github.com/anstrom/netdiag/internal/api/middleware"
	"github.com/anstrom/netdiag/internal/auth"
	"github.com/anstrom/netdiag/internal/config"
	"github.com/anstrom/netdiag/internal/logging"
	"github.com/anstrom/netdiag/internal/metrics"
	"github.com/anstrom/netdiag/internal/services"
)

// Server timeout constants.
const (
	serverShutdownTimeout = 30 * time.Second
	readHeaderTimeout     = 10 * time.Second
	idleTimeout           = 60 * time.Second
	metricsUpdateInterval = 15 * time.Second
)

// Paths reachable without an API key.
var publicPaths = []string{"/api/v1/health", "/api/v1/version"}

// Server represents the API server.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	config     *config.Config
	diag       *services.Diagnostics
	logger     *slog.Logger
	metrics    *metrics.PrometheusMetrics
	sweeps     *apihandlers.SweepHandler

	// Stops background middleware work such as rate limiter cleanup.
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new API server instance. pm may be nil, in which case
// /metrics is not served.
func New(cfg *config.Config, diag *services.Diagnostics, pm *metrics.PrometheusMetrics) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("API server requires a configuration")
	}
	if diag == nil {
		return nil, fmt.Errorf("API server requires a diagnostics service")
	}

	logger := logging.Default().WithComponent("api").Logger
	ctx, cancel := context.WithCancel(context.Background())

	server := &Server{
		router:  mux.NewRouter(),
		config:  cfg,
		diag:    diag,
		logger:  logger,
		metrics: pm,
		ctx:     ctx,
		cancel:  cancel,
	}

	server.setupMiddleware()
	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:              cfg.GetAPIAddress(),
		Handler:           server.router,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	return server, nil
}

// Start serves the API until ctx is canceled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	tlsCfg := s.config.API.TLS
	s.logger.Info("Starting API server",
		"address", ln.Addr().String(),
		"tls", tlsCfg.Enabled,
		"auth", s.config.API.AuthEnabled)

	if s.metrics != nil {
		go s.metrics.StartPeriodicUpdates(s.ctx, metricsUpdateInterval)
	}

	errChan := make(chan error, 1)
	go func() {
		var err error
		if tlsCfg.Enabled {
			err = s.httpServer.ServeTLS(ln, tlsCfg.CertFile, tlsCfg.KeyFile)
		} else {
			err = s.httpServer.Serve(ln)
		}
		if err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("API server failed: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		return s.Stop()
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		s.cancel()
		return err
	}
}

// Stop gracefully stops the API server. Open sweep connections are closed
// first, since Shutdown does not wait for hijacked connections.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")
	defer s.cancel()

	if s.sweeps != nil {
		_ = s.sweeps.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("API server shutdown error", "error", err)
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("API server stopped successfully")
	return nil
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	s.setupAPIMiddleware(api)

	apiCfg := s.config.API
	health := apihandlers.NewHealthHandler(s.diag.Limiter(), s.logger)
	diag := apihandlers.NewDiagnosticsHandler(s.diag, s.logger, apiCfg.MaxRequestSize)
	var origins []string
	if apiCfg.CORS.Enabled {
		origins = apiCfg.CORS.AllowedOrigins
	}
	s.sweeps = apihandlers.NewSweepHandler(s.diag, s.logger, origins)

	api.HandleFunc("/health", health.Health).Methods(http.MethodGet)
	api.HandleFunc("/version", health.Version).Methods(http.MethodGet)

	post := []string{http.MethodPost, http.MethodOptions}
	api.HandleFunc("/ping", diag.Ping).Methods(post...)
	api.HandleFunc("/tcpping", diag.TCPPing).Methods(post...)
	api.HandleFunc("/traceroute", diag.Traceroute).Methods(post...)
	api.HandleFunc("/portscan", diag.PortScan).Methods(post...)
	api.HandleFunc("/nslookup", diag.NSLookup).Methods(post...)
	api.HandleFunc("/whois", diag.Whois).Methods(post...)
	api.HandleFunc("/wakeonlan", diag.WakeOnLAN).Methods(post...)
	api.HandleFunc("/speedtest", diag.SpeedTest).Methods(post...)
	api.HandleFunc("/sweep/ws", s.sweeps.Sweep).Methods(http.MethodGet)

	if s.metrics != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.GetRegistry(), promhttp.HandlerOpts{})).
			Methods(http.MethodGet)
	}

	s.router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
	))
	s.router.HandleFunc("/docs", s.redirectToSwagger).Methods(http.MethodGet)
	s.router.HandleFunc("/", s.index).Methods(http.MethodGet)
}

// setupMiddleware configures middleware shared by every route.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery(s.logger))
	s.router.Use(middleware.RequestID())
	if s.config.Logging.RequestLogging {
		s.router.Use(middleware.Logging(s.logger))
	}
	if s.metrics != nil {
		s.router.Use(middleware.Metrics(s.metrics))
	}
	s.router.Use(middleware.SecurityHeaders())

	if cors := s.config.API.CORS; cors.Enabled {
		s.router.Use(handlers.CORS(
			handlers.AllowedOrigins(cors.AllowedOrigins),
			handlers.AllowedMethods(cors.AllowedMethods),
			handlers.AllowedHeaders(cors.AllowedHeaders),
			handlers.ExposedHeaders([]string{"X-Request-ID"}),
		))
	}
}

// setupAPIMiddleware configures middleware of the /api/v1 routes.
func (s *Server) setupAPIMiddleware(api *mux.Router) {
	apiCfg := s.config.API

	if apiCfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(s.ctx, apiCfg.RateLimit.Requests, apiCfg.RateLimit.Window, s.logger))
	}
	if apiCfg.AuthEnabled {
		api.Use(middleware.Authentication(auth.NewKeyStore(apiCfg.APIKeys), publicPaths, s.logger))
	}
	api.Use(middleware.ContentType())
	api.Use(middleware.RequestTimeout(apiCfg.RequestTimeout))
}

// index describes the API for requests to the root path.
func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"service": "netdiag API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":     "/api/v1/health",
			"ping":       "/api/v1/ping",
			"tcpping":    "/api/v1/tcpping",
			"traceroute": "/api/v1/traceroute",
			"portscan":   "/api/v1/portscan",
			"nslookup":   "/api/v1/nslookup",
			"whois":      "/api/v1/whois",
			"wakeonlan":  "/api/v1/wakeonlan",
			"speedtest":  "/api/v1/speedtest",
			"sweep":      "/api/v1/sweep/ws",
			"docs":       "/swagger/",
		},
		"timestamp": time.Now().UTC(),
	}
	apihandlers.WriteJSON(w, r, http.StatusOK, response)
}

// redirectToSwagger redirects to the Swagger UI.
func (s *Server) redirectToSwagger(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
}

// GetRouter returns the configured router.
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// GetAddress returns the server address.
func (s *Server) GetAddress() string {
	return s.httpServer.Addr
}
