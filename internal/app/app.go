package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"sheetpulse/internal/config"
	"sheetpulse/internal/dashboard"
	"sheetpulse/internal/dataprocessing"
	apierrors "sheetpulse/internal/errors"
	"sheetpulse/internal/exporter"
	"sheetpulse/internal/infrastructure"
	customMiddleware "sheetpulse/internal/middleware"
	"sheetpulse/internal/services"
	handlers "sheetpulse/internal/transport/http"
	"sheetpulse/internal/validation"
	ws "sheetpulse/internal/websocket"
	"sheetpulse/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	WebSocketHub  *ws.Hub
	Workbooks     *services.WorkbookService
	HealthService *services.HealthService
	FrontendFS    fs.FS

	errorHandler *apierrors.ErrorHandler
	validator    *customMiddleware.RequestValidator
}

// NewApplication wires every component from cfg. frontendFS holds index.html
// and may be nil, in which case only the API is served.
func NewApplication(cfg *config.Config, logger *slog.Logger, frontendFS fs.FS) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("version", contracts.Version),
		slog.String("addr", cfg.Server.Addr()))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Observability), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		FrontendFS:    frontendFS,
		errorHandler:  apierrors.NewErrorHandler(logger, false),
		validator:     customMiddleware.NewRequestValidator(logger),
	}

	if err := a.initializeServices(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	if err := a.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up routes: %w", err)
	}
	a.createServer()

	return a, nil
}

// initializeServices builds the workbook service and its collaborators
func (a *Application) initializeServices(ctx context.Context) error {
	metrics, err := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}
	a.Metrics = metrics

	wsMetrics, err := ws.NewMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create websocket metrics: %w", err)
	}
	a.WebSocketHub = ws.NewHub(a.Logger, wsMetrics)

	opts := WorkbookOptions(a.Config, metrics, a.Logger)
	opts.Hub = a.WebSocketHub

	if a.Config.GoogleSheets.Enabled() {
		fetcher, err := dataprocessing.NewSheetsFetcher(ctx, option.WithAPIKey(a.Config.GoogleSheets.APIKey))
		if err != nil {
			return fmt.Errorf("failed to initialize google sheets import: %w", err)
		}
		opts.Fetcher = fetcher
	} else {
		a.Logger.Info("Google Sheets import disabled, no API key configured")
	}

	a.Workbooks = services.NewWorkbookService(opts, a.Logger)
	a.HealthService = services.NewHealthService(contracts.Version, contracts.BuildTime, a.Workbooks, a.WebSocketHub, a.Logger)
	return nil
}

// WorkbookOptions builds the workbook service collaborators described by cfg.
// metrics may be nil. Hub and Fetcher are left for the caller.
func WorkbookOptions(cfg *config.Config, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) services.WorkbookServiceOptions {
	var observer dashboard.Observer
	exp := exporter.New(exporter.Options{CSVBOM: cfg.Upload.CSVBOM}, logger)
	opts := services.WorkbookServiceOptions{
		Validator:     validation.NewFileValidator(logger, cfg.Upload.MaxBytes),
		ImportTimeout: cfg.GoogleSheets.Timeout,
		View: dataprocessing.ViewOptions{
			DefaultRowLimit: cfg.Dashboard.DefaultRowLimit,
			MinRowLimit:     cfg.Dashboard.MinRowLimit,
			DefaultColumns:  cfg.Dashboard.DefaultColumns,
		},
	}
	if metrics != nil {
		observer = metrics
		exp = exp.WithRecorder(metrics)
		opts.Metrics = metrics
	}
	opts.Builder = dashboard.NewBuilder(dashboard.Options{
		TopN:        cfg.Dashboard.TopN,
		GenericTopN: cfg.Dashboard.GenericTopN,
	}, observer, logger)
	opts.Exporter = exp
	return opts
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	// Only middleware that leaves the ResponseWriter unwrapped runs before /ws.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).Get("/ws", a.WebSocketHub.Handler(ws.HandlerConfig{
		AllowedOrigins:  a.Config.Security.AllowedOrigins,
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
		Timing: ws.Timing{
			PingPeriod: a.Config.WebSocket.PingPeriod,
			PongWait:   a.Config.WebSocket.PongWait,
		},
	}))

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	var page http.HandlerFunc
	if a.FrontendFS != nil {
		var err error
		page, err = handlers.ServeDashboardPage(a.FrontendFS, handlers.PageData{
			Version:       contracts.Version,
			ImportEnabled: a.Workbooks.ImportEnabled(),
			MaxUploadMB:   a.Config.Upload.MaxBytes >> 20,
		})
		if err != nil {
			return err
		}
	}

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(customMiddleware.DefaultSecureHeaders().Handler)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				Logger:         a.Logger,
			}))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Route("/api", a.setupAPIRoutes)

		if page != nil {
			r.With(
				customMiddleware.StructuredLogger(a.Logger),
				apierrors.RecoveryMiddleware(a.errorHandler),
			).Get("/", page)
		}
	})

	a.Router = r
	return nil
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	// Logs every API request, with the JSON body on failures, and recovers panics.
	r.Use(apierrors.NewErrorMiddleware(a.errorHandler, a.Logger).Handler)
	if a.Config.Server.RequestTimeout > 0 {
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
	}
	r.Use(customMiddleware.Compress(5))

	health := handlers.NewHealthHandler(a.HealthService, a.Logger)
	r.Mount("/health", health.Routes())
	r.Get("/version", health.Version)

	r.Mount("/workbook", handlers.NewWorkbookHandler(
		a.Workbooks, a.validator, a.errorHandler, a.Config.Upload.MaxBytes, a.Logger).Routes())
	r.Group(handlers.NewViewHandler(a.Workbooks, a.validator, a.errorHandler, a.Logger).RegisterRoutes)

	r.Post("/logs", handlers.NewClientLogHandler(a.validator, a.errorHandler, a.Logger).Handle)
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
	}
}

// Run serves until ctx is cancelled or the server fails, then shuts down
// the server, the websocket hub and the telemetry providers.
func (a *Application) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.WebSocketHub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "Application started",
			slog.String("address", "http://"+a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop gracefully stops the server and flushes telemetry
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.shutdownTimeout())
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

func (a *Application) shutdownTimeout() time.Duration {
	if a.Config.Server.ShutdownTimeout > 0 {
		return a.Config.Server.ShutdownTimeout
	}
	return 10 * time.Second
}
