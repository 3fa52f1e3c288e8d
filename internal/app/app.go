package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/vovakirdan/msgboard-server/internal/config"
	"github.com/vovakirdan/msgboard-server/internal/metrics"
	"github.com/vovakirdan/msgboard-server/internal/store"
	"github.com/vovakirdan/msgboard-server/internal/store/postgres"
	"github.com/vovakirdan/msgboard-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/msgboard-server/internal/transport/http"
)

// App wires together storage and transport layers.
type App struct {
	server          *stdhttp.Server
	metricsServer   *stdhttp.Server
	shutdownTimeout time.Duration
	retry           store.RetryPolicy
	store           store.Store
	log             *zerolog.Logger
}

// OpenStore opens the store selected by cfg.DB.Driver without contacting it.
func OpenStore(cfg config.DBConfig) (store.Store, error) {
	switch cfg.Driver {
	case "postgres", "":
		return postgres.New(postgres.Options{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			Database: cfg.Name,
			SSLMode:  cfg.SSLMode,
			MaxConns: cfg.MaxConns,

			ConnectTimeout: cfg.ConnectTimeout,
		})
	case "sqlite":
		return sqlite.New(cfg.Path)
	default:
		return nil, fmt.Errorf("%w: %q", store.ErrUnsupportedDriver, cfg.Driver)
	}
}

// newMetrics is replaced in tests to force collector registration failures.
var newMetrics = metrics.New

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := OpenStore(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().
		Str("driver", cfg.DB.Driver).
		Int("max_conns", cfg.DB.MaxConns).
		Msg("database pool configured")

	return NewWithStore(cfg, st, logger)
}

// NewWithStore builds the application around an already opened store.
// The App takes ownership of st and closes it when Run returns.
func NewWithStore(cfg config.Config, st store.Store, logger *zerolog.Logger) (*App, error) {
	var m *metrics.Metrics
	var metricsServer *stdhttp.Server
	if cfg.Metrics.Addr != "" {
		m = newMetrics()
		if err := m.RegisterDB(st.DB(), "messages"); err != nil {
			if closeErr := st.Close(); closeErr != nil {
				logger.Warn().Err(closeErr).Msg("failed to close store")
			}
			return nil, fmt.Errorf("register db metrics: %w", err)
		}
		mux := stdhttp.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsServer = &stdhttp.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		}
	}

	return &App{
		server:          transporthttp.NewServer(st, cfg, m, logger),
		metricsServer:   metricsServer,
		shutdownTimeout: cfg.ShutdownTimeout,
		retry: store.RetryPolicy{
			Attempts:       cfg.Startup.Retries,
			Delay:          cfg.Startup.RetryDelay,
			AttemptTimeout: cfg.Startup.AttemptTimeout,
		},
		store:           st,
		log:             logger,
	}, nil
}

// Prepare waits for the database and ensures the schema exists.
func (a *App) Prepare(ctx context.Context) error {
	if err := store.WaitReady(ctx, a.store, a.retry, a.log); err != nil {
		return err
	}
	if err := a.store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	a.log.Info().Msg("ensured messages table exists")
	return nil
}

// Run prepares storage, then starts the HTTP server and blocks until
// context cancellation or fatal error. Nothing listens if Prepare fails.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	if err := a.Prepare(ctx); err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	serverErr := make(chan error, 2)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("api listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	if a.metricsServer != nil {
		go func() {
			a.log.Info().Str("addr", a.metricsServer.Addr).Msg("metrics listening")
			if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				serverErr <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	select {
	case err := <-serverErr:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.shutdownMetrics()
		_ = a.server.Shutdown(shutdownCtx)
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		a.shutdownMetrics()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}

		return <-serverErr
	}
}

// InitSchema runs only the startup gate and schema initializer, then closes the store.
func (a *App) InitSchema(ctx context.Context) error {
	defer a.cleanup()
	return a.Prepare(ctx)
}

func (a *App) shutdownMetrics() {
	if a.metricsServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	if err := a.metricsServer.Shutdown(ctx); err != nil {
		a.log.Warn().Err(err).Msg("failed to stop metrics server")
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
