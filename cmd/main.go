package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/skillup/internal/adapters/http/api"
	"github.com/okian/skillup/internal/adapters/http/swagger"
	"github.com/okian/skillup/internal/adapters/identity"
	"github.com/okian/skillup/internal/adapters/kv"
	"github.com/okian/skillup/internal/adapters/mq/worker"
	"github.com/okian/skillup/internal/adapters/repository"
	app "github.com/okian/skillup/internal/app"
	"github.com/okian/skillup/internal/config"
	"github.com/okian/skillup/internal/domain/biometric"
	"github.com/okian/skillup/internal/domain/catalog"
	"github.com/okian/skillup/pkg/logger"
	"github.com/okian/skillup/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// We collect our own system metrics on a custom registry.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(); err != nil {
		logger.Get().Error(context.Background(), "skillup exited", logger.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run() error {
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A missing .env is fine; a malformed one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	backends, cleanup, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	svc := app.New(append(backends,
		app.WithLogger(log.Named("service")),
		app.WithWriterCount(cfg.WriterCount),
		app.WithQueueSize(cfg.WriteQueueSize),
		app.WithINRRate(cfg.INRRate),
		app.WithIdentityOptions(
			identity.WithSecret(cfg.JWTSecret),
			identity.WithIssuer(cfg.JWTIssuer),
			identity.WithTTL(cfg.TokenTTL()),
			identity.WithBcryptCost(cfg.BcryptCost),
			identity.WithMinPasswordLength(cfg.MinPasswordLength),
		),
		app.WithBiometricOptions(
			biometric.WithTick(cfg.BiometricTick()),
			biometric.WithHistoryLimit(cfg.SessionHistoryLimit),
		),
	)...)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Error(stopCtx, "service stop failed", logger.Error(err))
		}
	}()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(svc, cfg, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	log.Info(shutdownCtx, "server stopped")
	return nil
}

// newRouter mounts the docs and the business API on one chi router.
func newRouter(svc *app.Service, cfg *config.Config, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	api.NewServer(svc, svc,
		api.WithAllowedOrigins(cfg.AllowedOrigins()),
		api.WithLogger(log.Named("api")),
	).Register(r)
	swagger.Register(r)
	return r
}

// openBackends connects the configured stores and loads the catalog. The
// returned cleanup releases connections the service does not own.
func openBackends(ctx context.Context, cfg *config.Config, log logger.Logger) ([]app.Option, func(), error) {
	var (
		opts     []app.Option
		cleanups []func()
	)
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if cfg.CatalogPath != "" {
		c, err := catalog.Open(cfg.CatalogPath)
		if err != nil {
			return nil, cleanup, err
		}
		opts = append(opts, app.WithCatalog(c))
		log.Info(ctx, "loaded catalog", logger.String("path", cfg.CatalogPath))
	}

	if cfg.ProfileStore == config.BackendPostgres {
		pool, err := repository.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, cleanup, err
		}
		cleanups = append(cleanups, pool.Close)
		opts = append(opts,
			app.WithProfileStore(repository.NewPostgresProfiles(pool)),
			app.WithAccountStore(repository.NewPostgresAccounts(pool)),
		)
		log.Info(ctx, "using postgres profile and account stores")
	}

	if cfg.PrefsStore == config.BackendRedis {
		store, err := kv.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		// Closed by the service on Stop.
		opts = append(opts, app.WithPrefsStore(store))
		log.Info(ctx, "using redis prefs store", logger.String("addr", cfg.RedisAddr))
	}

	return opts, cleanup, nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics updates service-level metrics.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if writers, ok := stats["writers"].(worker.Stats); ok {
		metrics.UpdateWriterCount(writers.Workers)
	}
	if bio, ok := stats["biometric"].(biometric.Stats); ok {
		metrics.UpdateBiometricActiveSessions(bio.ActiveSessions)
		metrics.UpdateBiometricSubscribers(bio.Subscribers)
	}
}
