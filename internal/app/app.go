// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/safetydesk/safetydesk/internal/catalog"
	catalogpostgres "github.com/safetydesk/safetydesk/internal/catalog/postgres"
	"github.com/safetydesk/safetydesk/internal/config"
	"github.com/safetydesk/safetydesk/internal/domain"
	"github.com/safetydesk/safetydesk/internal/identity"
	"github.com/safetydesk/safetydesk/internal/identity/jwt"
	"github.com/safetydesk/safetydesk/internal/incidents"
	incidentspostgres "github.com/safetydesk/safetydesk/internal/incidents/postgres"
	"github.com/safetydesk/safetydesk/internal/notifications"
	"github.com/safetydesk/safetydesk/internal/notifications/email"
	"github.com/safetydesk/safetydesk/internal/pkg/ctxlog"
	"github.com/safetydesk/safetydesk/internal/pkg/httputil"
	"github.com/safetydesk/safetydesk/internal/pkg/metrics"
	"github.com/safetydesk/safetydesk/internal/pkg/postgres"
	"github.com/safetydesk/safetydesk/internal/reports"
	reportspostgres "github.com/safetydesk/safetydesk/internal/reports/postgres"
	"github.com/safetydesk/safetydesk/internal/store"
	"github.com/safetydesk/safetydesk/internal/version"
	"github.com/safetydesk/safetydesk/migrations"
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	server        *http.Server
	metricsServer *http.Server
	metricsCancel context.CancelFunc

	notificationQueue *notifications.Queue
	digestScheduler   *notifications.Scheduler
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)

	if cfg.Database.Migrate {
		if err := postgres.Migrate(cfg.Database.URL, migrations.FS); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("migrations applied")
	}

	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer connectCancel()

	db, err := postgres.Connect(connectCtx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	backgroundCtx, backgroundCancel := context.WithCancel(context.Background())

	app := &App{
		config:        cfg,
		logger:        logger,
		db:            db,
		metricsCancel: backgroundCancel,
	}

	go app.collectDBMetrics(backgroundCtx)

	router, err := app.setupRouter(backgroundCtx)
	if err != nil {
		db.Close()
		backgroundCancel()
		return nil, fmt.Errorf("setup router: %w", err)
	}

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the HTTP servers.
func (a *App) Run() error {
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
	)

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	if a.digestScheduler != nil {
		a.digestScheduler.Stop()
	}

	// Shutdown both servers in parallel
	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			mu.Unlock()
		}
	}()

	wg.Wait()

	// Requests drained above may have queued notification work, so the
	// queue stops only after the server is done accepting them.
	if a.notificationQueue != nil {
		a.notificationQueue.Stop()
	}

	a.metricsCancel()
	a.db.Close()

	return errors.Join(errs...)
}

func (a *App) collectDBMetrics(ctx context.Context) {
	// Collect immediately on start
	metrics.RecordDBPoolMetrics(a.db)

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics.RecordDBPoolMetrics(a.db)
		case <-ctx.Done():
			return
		}
	}
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

func (a *App) setupRouter(ctx context.Context) (*chi.Mux, error) {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		http.ServeFile(w, r, "api/openapi/openapi.yaml")
	})

	r.Get("/docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>SafetyDesk API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
        SwaggerUIBundle({
            url: "/api/openapi.yaml",
            dom_id: '#swagger-ui',
            presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
            layout: "BaseLayout"
        });
    </script>
</body>
</html>`))
	})

	gateway := store.New(a.db)

	catalogRepo := catalogpostgres.NewRepository(gateway)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(catalogService)

	jwtAuth := jwt.NewAuthenticator(jwt.Config{
		SecretKey:           a.config.JWT.SecretKey,
		AccessTokenDuration: a.config.JWT.AccessTokenDuration,
	})
	identityService := identity.NewService(catalogRepo, jwtAuth)
	identityHandler := identity.NewHandler(identityService)

	incidentsRepo := incidentspostgres.NewRepository(gateway)

	slog.Info("notifications configured",
		"enabled", a.config.Notifications.Enabled,
		"smtp_host", a.config.Notifications.Email.SMTPHost,
		"alert_threshold", a.config.Notifications.Alerts.CriticalThreshold,
	)

	notificationRenderer, err := notifications.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("create notification renderer: %w", err)
	}

	emailSender := email.NewSender(email.Config{
		Host:        a.config.Notifications.Email.SMTPHost,
		Port:        a.config.Notifications.Email.SMTPPort,
		User:        a.config.Notifications.Email.SMTPUser,
		Password:    a.config.Notifications.Email.SMTPPassword,
		UseTLS:      a.config.Notifications.Email.UseTLS,
		FromAddress: a.config.Notifications.Email.FromAddress,
		FromName:    a.config.Notifications.Email.FromName,
		RateLimit:   a.config.Notifications.Email.RateLimit,
	})

	a.notificationQueue = notifications.NewQueue(a.config.Notifications.QueueSize, 2)

	notificationsService := notifications.NewService(notifications.Config{
		Enabled:         a.config.Notifications.Enabled,
		AlertRecipients: a.config.Notifications.Alerts.Recipients,
	}, emailSender, notificationRenderer, a.notificationQueue, catalogService, incidentsRepo)
	notificationsHandler := notifications.NewHandler(notificationsService)

	if a.config.Notifications.Enabled {
		a.notificationQueue.Start(ctx)

		scheduler, err := notifications.NewScheduler(a.config.Notifications.Digest.Schedule, notificationsService)
		if err != nil {
			return nil, fmt.Errorf("create digest scheduler: %w", err)
		}
		scheduler.Start(ctx)
		a.digestScheduler = scheduler
	}

	incidentsService := incidents.NewService(incidentsRepo, notificationsService, incidents.AlertPolicy{
		Enabled:           a.config.Notifications.Enabled,
		CriticalThreshold: a.config.Notifications.Alerts.CriticalThreshold,
	})
	incidentsHandler := incidents.NewHandler(incidentsService)

	reportRenderer, err := reports.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("create report renderer: %w", err)
	}
	reportsRepo := reportspostgres.NewRepository(gateway)
	reportsService := reports.NewService(reportsRepo, incidentsService, reportRenderer, a.config.Reports.ExportRowLimit)
	reportsHandler := reports.NewHandler(reportsService)

	r.Route("/api/v1", func(r chi.Router) {
		identityHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(httputil.AuthMiddleware(identityService))

			identityHandler.RegisterProtectedRoutes(r)
			catalogHandler.RegisterRoutes(r)
			incidentsHandler.RegisterRoutes(r)
			reportsHandler.RegisterRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(httputil.RequireRole(domain.RoleReporter))
				incidentsHandler.RegisterReporterRoutes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(httputil.RequireRole(domain.RoleManager))
				incidentsHandler.RegisterManagerRoutes(r)
				reportsHandler.RegisterManagerRoutes(r)
				notificationsHandler.RegisterManagerRoutes(r)
			})
		})
	})

	return r, nil
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"commit":     version.GitCommit,
		"build_date": version.BuildDate,
	})
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
