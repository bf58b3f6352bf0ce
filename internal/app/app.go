package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	promclient "github.com/prometheus/client_golang/prometheus"

	"switchrecon/internal/config"
	apperrors "switchrecon/internal/errors"
	"switchrecon/internal/exporter"
	"switchrecon/internal/files"
	"switchrecon/internal/infrastructure"
	customMiddleware "switchrecon/internal/middleware"
	"switchrecon/internal/operations"
	"switchrecon/internal/reconcile"
	"switchrecon/internal/services"
	handlers "switchrecon/internal/transport/http"
	ws "switchrecon/internal/websocket"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.RunMetrics

	WebSocketHub  *ws.Hub
	RunManager    *operations.Manager
	RunService    *services.RunService
	HealthService *services.HealthService

	errorHandler *apperrors.ErrorHandler
	validator    *customMiddleware.Validator
	wsServer     *ws.Server

	listener net.Listener
	serveErr chan error
}

// NewApplication wires every component for cfg. Nothing is listening until
// Start is called.
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	paths, err := config.GetPaths(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelCfg := infrastructure.NewOTelConfig(cfg.Telemetry)
	otelCfg.Registry = promclient.NewRegistry()
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	metrics, err := infrastructure.CreateRunMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		Paths:         paths,
		OTelProviders: providers,
		Metrics:       metrics,
		serveErr:      make(chan error, 1),
	}

	a.initializeServices()
	a.setupRouter()
	a.createServer()
	return a, nil
}

// initializeServices builds the run pipeline from the engine outwards
func (a *Application) initializeServices() {
	fm := files.NewManager(a.Paths, a.Logger)

	hub := ws.NewHub(a.Logger, a.Metrics)
	hub.Start()
	a.WebSocketHub = hub

	store := operations.NewRunStore(a.Config.Runs.Retention, a.Config.Runs.CleanupInterval, func(id string) {
		if err := fm.RemoveRun(id); err != nil {
			infrastructure.WithError(a.Logger, err).Warn("failed to remove run files",
				slog.String("run_id", id))
		}
	}, a.Logger)

	engine := reconcile.NewEngine(reconcile.OptionsFrom(a.Config.Matching), a.Logger, a.Metrics)
	a.RunManager = operations.NewManager(
		engine,
		store,
		ws.NewRunPublisher(hub, a.Logger),
		operations.NewRunTracer(a.OTelProviders),
		a.Config.Server.RunTimeout,
		a.Logger,
	)

	a.RunService = services.NewRunService(a.RunManager, fm, exporter.New(a.Logger), a.Config.Server.MaxUploadBytes, a.Logger)
	a.HealthService = services.NewHealthService(config.AppVersion, a.Paths, a.RunManager, hub, a.Logger)

	a.errorHandler = apperrors.NewErrorHandler(a.Logger, false)
	a.validator = customMiddleware.NewValidator(a.Logger, a.errorHandler)
	a.wsServer = ws.NewServer(hub, a.Config.WebSocket, a.Logger)
}

// setupRouter configures the HTTP router with all routes.
// Middleware order: RequestID, RealIP, OTel, Logger, Recoverer, headers.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics, a.Logger).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.errorHandler))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Server.CORSOrigins,
		ExposedHeaders: []string{"Location", "Content-Disposition", "X-Request-ID"},
		Logger:         a.Logger,
	}))

	if a.Config.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.RateLimit.RPS,
			a.Config.RateLimit.Burst,
			a.errorHandler,
			a.Logger,
		).Handler)
	}

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	a.setupAPIRoutes(r)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		runsHandler := handlers.NewRunsHandler(a.RunService, a.wsServer, a.validator, a.errorHandler, a.Logger)
		r.With(customMiddleware.MaxBodySize(a.Config.Server.MaxUploadBytes)).
			Mount("/v1/runs", runsHandler.Routes())
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(a.Logger.Handler(), slog.LevelWarn),
	}
}

// Handler returns the root HTTP handler
func (a *Application) Handler() http.Handler {
	return a.Router
}

// Addr returns the address the server listens on once started
func (a *Application) Addr() string {
	if a.listener == nil {
		return a.Server.Addr
	}
	return a.listener.Addr().String()
}

// Start binds the listen address and serves in the background
func (a *Application) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.listener = ln

	a.Logger.InfoContext(ctx, "Server listening", slog.String("addr", ln.Addr().String()))

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.serveErr <- err
		}
		close(a.serveErr)
	}()
	return nil
}

// Stop gracefully stops the application. Active runs are cancelled after
// the listener closes.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	if err := a.RunManager.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("run manager shutdown: %w", err))
	}
	a.WebSocketHub.Stop()

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "Error shutting down OpenTelemetry")
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run serves until ctx is cancelled or the server fails, then shuts down
func (a *Application) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	var serveErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("Received shutdown signal")
	case serveErr = <-a.serveErr:
		if serveErr != nil {
			a.Logger.Error("Server stopped unexpectedly", slog.String("error", serveErr.Error()))
		}
	}

	// The parent context is already done; shutdown gets a fresh deadline
	stopErr := a.Stop(context.WithoutCancel(ctx))
	return errors.Join(serveErr, stopErr)
}
