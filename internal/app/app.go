package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"bikepulse/internal/config"
	"bikepulse/internal/dataset"
	apierrors "bikepulse/internal/errors"
	"bikepulse/internal/infrastructure"
	customMiddleware "bikepulse/internal/middleware"
	"bikepulse/internal/services"
	handlers "bikepulse/internal/transport/http"
	ws "bikepulse/internal/websocket"
	"bikepulse/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	Dataset       *dataset.Table
	WebSocketHub  *ws.Hub
	Services      *ServiceContainer
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.DashboardMetrics
	ErrorHandler  *apierrors.ErrorHandler
	FrontendFS    fs.FS // Embedded frontend filesystem, may be nil

	listener net.Listener
	stopOnce sync.Once
	stopErr  error
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Dashboard *services.DashboardService
	Health    *services.HealthService
}

// NewApplication loads configuration from the environment and builds the
// application around it.
func NewApplication(frontendFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(context.Background(), cfg, logger, frontendFS)
}

// New wires an application from an already loaded configuration. The
// dataset is read here, so a missing or malformed file fails construction.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, frontendFS fs.FS) (*Application, error) {
	logger.InfoContext(ctx, "Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("dataset", cfg.Dataset.Path))

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFromTelemetry(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Level == "debug"),
		FrontendFS:    frontendFS,
	}

	if err := app.initialize(ctx); err != nil {
		if shutdownErr := providers.Shutdown(context.Background()); shutdownErr != nil {
			logger.WarnContext(ctx, "Telemetry shutdown failed", slog.String("error", shutdownErr.Error()))
		}
		return nil, err
	}

	return app, nil
}

func (a *Application) initialize(ctx context.Context) error {
	metrics, err := infrastructure.CreateDashboardMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}
	a.Metrics = metrics

	table, err := a.loadDataset(ctx)
	if err != nil {
		return err
	}
	a.Dataset = table

	if err := infrastructure.RegisterDatasetGauges(a.OTelProviders.Registry, table); err != nil {
		return err
	}

	a.WebSocketHub = ws.NewHub(a.Logger, metrics)
	a.Services = &ServiceContainer{
		Dashboard: services.NewDashboardService(table, metrics, a.OTelProviders.Tracer, a.Logger),
		Health:    services.NewHealthService(table, a.WebSocketHub, a.Logger),
	}

	router, err := a.setupRouter()
	if err != nil {
		return err
	}
	a.Router = router
	a.createServer()

	return nil
}

// loadDataset reads the configured rental file once at startup
func (a *Application) loadDataset(ctx context.Context) (*dataset.Table, error) {
	opts := dataset.DefaultOptions()
	opts.Delimiter = a.Config.Dataset.DelimiterRune()
	opts.Sheet = a.Config.Dataset.Sheet
	opts.ValidateTotals = a.Config.Dataset.ValidateTotals
	if a.Config.Dataset.MaxErrors > 0 {
		opts.MaxErrors = a.Config.Dataset.MaxErrors
	}
	opts.Logger = infrastructure.WithComponent(a.Logger, "dataset")

	path := a.Config.DatasetPath()
	table, err := dataset.Load(ctx, path, opts)
	if err != nil {
		a.Logger.ErrorContext(ctx, "Dataset could not be loaded",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	return table, nil
}

// setupRouter configures the HTTP router
func (a *Application) setupRouter() (*chi.Mux, error) {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	// The live channel is hijacked, so it stays outside the timeout and
	// compression middleware that wrap the JSON API.
	wsHandler := ws.NewHandler(
		a.WebSocketHub,
		a.Services.Dashboard,
		a.websocketOptions(),
		a.Config.WebSocket.ReadBufferSize,
		a.Config.WebSocket.WriteBufferSize,
		a.Config.Security.AllowedOrigins,
		a.ErrorHandler,
		a.Logger,
	)
	r.With(customMiddleware.WebSocketTraceMiddleware(a.OTelProviders.Tracer, a.Logger)).
		Handle(config.WebSocketEndpoint, wsHandler)

	r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create otel middleware: %w", err)
	}

	frontend, err := handlers.NewFrontendHandler(a.FrontendFS, a.Logger)
	if err != nil {
		return nil, err
	}

	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	dashboardHandler := handlers.NewDashboardHandler(a.Services.Dashboard, a.Logger, a.ErrorHandler)
	clientLogHandler := handlers.NewClientLogHandler(a.Logger, a.ErrorHandler)

	r.Group(func(r chi.Router) {
		r.Use(otelMiddleware.Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.Compress(5))

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
				AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
				ExposedHeaders: []string{"Content-Disposition", "X-Request-ID"},
				MaxAge:         300,
				Logger:         a.Logger,
			}))
		}

		if a.Config.Security.RateLimit.Enabled {
			limiter := customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.ErrorHandler,
			)
			r.Use(limiter.Handler)
		}

		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger, a.ErrorHandler))

		r.Route(config.APIBasePath, func(r chi.Router) {
			r.Get("/health", healthHandler.HealthCheck)
			r.Get("/health/ready", healthHandler.ReadinessCheck)
			r.Get("/health/live", healthHandler.LivenessCheck)
			r.Get("/version", healthHandler.Version)

			r.Mount("/dashboard", dashboardHandler.Routes())
			r.Mount("/system/stats", handlers.NewMetricsHandler(a.Services.Health).Routes())
			r.Post("/logs", clientLogHandler.Handle)
		})

		frontend.Routes(r)
	})

	return r, nil
}

func (a *Application) websocketOptions() ws.Options {
	opts := ws.DefaultOptions()
	wc := a.Config.WebSocket
	if wc.WriteWait > 0 {
		opts.WriteWait = wc.WriteWait
	}
	if wc.PongWait > 0 {
		opts.PongWait = wc.PongWait
	}
	if wc.PingPeriod > 0 {
		opts.PingPeriod = wc.PingPeriod
	}
	// pings must arrive before the peer's read deadline expires
	if opts.PingPeriod >= opts.PongWait {
		opts.PingPeriod = opts.PongWait * 9 / 10
	}
	if wc.MaxMessageSize > 0 {
		opts.MaxMessageSize = wc.MaxMessageSize
	}
	if wc.SendBuffer > 0 {
		opts.SendBuffer = wc.SendBuffer
	}
	return opts
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelWarn),
	}
}

// Start binds the listen address and starts background services. Serve
// must be called afterwards to accept connections.
func (a *Application) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.listener = ln

	a.WebSocketHub.Start()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", "http://"+ln.Addr().String()),
		slog.Int("records", a.Dataset.Len()))
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (a *Application) Addr() string {
	if a.listener == nil {
		return a.Server.Addr
	}
	return a.listener.Addr().String()
}

// Serve blocks until the server is shut down.
func (a *Application) Serve() error {
	if a.listener == nil {
		return errors.New("application not started")
	}
	if err := a.Server.Serve(a.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the application. Only the first call does work.
func (a *Application) Stop(ctx context.Context) error {
	a.stopOnce.Do(func() {
		a.stopErr = a.stop(ctx)
	})
	return a.stopErr
}

func (a *Application) stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var result *multierror.Error

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("server shutdown error: %w", err))
	}

	// Hijacked sessions are not tracked by Server.Shutdown.
	a.WebSocketHub.Shutdown("server shutting down")

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("telemetry shutdown error: %w", err))
	}

	if err := result.ErrorOrNil(); err != nil {
		a.Logger.ErrorContext(ctx, "Shutdown finished with errors", slog.String("error", err.Error()))
	} else {
		a.Logger.InfoContext(ctx, "Application stopped")
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		result = multierror.Append(result, fmt.Errorf("log file close error: %w", err))
	}

	return result.ErrorOrNil()
}

// Run starts the application and blocks until ctx is cancelled, an
// interrupt or termination signal arrives, or the server fails.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		if shutdownErr := a.OTelProviders.Shutdown(context.Background()); shutdownErr != nil {
			a.Logger.WarnContext(ctx, "Telemetry shutdown failed", slog.String("error", shutdownErr.Error()))
		}
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(a.Serve)
	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("Shutdown signal received")
		return a.Stop(context.Background())
	})

	return g.Wait()
}
