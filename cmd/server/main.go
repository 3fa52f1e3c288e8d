package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/msgboard-server/internal/app"
	"github.com/vovakirdan/msgboard-server/internal/config"
	applog "github.com/vovakirdan/msgboard-server/internal/log"
)

const version = "0.1.0"

type flags struct {
	configPath string
	overrides  config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:           "msgboard-server",
		Short:         "Message board HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), f)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "path to config.yaml")
	pf.StringVar(&f.overrides.Log.Level, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&f.overrides.DB.Driver, "db-driver", "", "database driver (postgres, sqlite)")
	pf.StringVar(&f.overrides.DB.Path, "db-path", "", "sqlite database path")
	pf.IntVar(&f.overrides.Startup.Retries, "db-retries", 0, "readiness check attempts before giving up")
	pf.DurationVar(&f.overrides.Startup.RetryDelay, "db-retry-delay", 0, "fixed delay between readiness checks")
	pf.DurationVar(&f.overrides.Startup.AttemptTimeout, "db-attempt-timeout", 0, "time limit for a single readiness check")

	rootCmd.Flags().IntVar(&f.overrides.Port, "port", 0, "HTTP listen port")
	rootCmd.Flags().DurationVar(&f.overrides.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	rootCmd.Flags().DurationVar(&f.overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	rootCmd.Flags().StringVar(&f.overrides.Metrics.Addr, "metrics-addr", "", "Prometheus listen address (empty disables)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "init-db",
		Short: "Wait for the database and create the messages table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInitDB(cmd.Context(), f)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})

	return rootCmd
}

// setup resolves configuration and the logger shared by every command.
func setup(f *flags) (config.Config, *zerolog.Logger, error) {
	bootLogger := applog.New("info", "console")

	cfg, path, err := config.Load(bootLogger, f.configPath)
	if err != nil {
		bootLogger.Error().Err(err).Str("path", path).Msg("failed to load config")
		return cfg, bootLogger, err
	}
	cfg.UpdateFrom(f.overrides)

	logger := applog.New(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid config")
		return cfg, logger, err
	}

	logger.Debug().Str("path", path).Msg("config loaded")
	return cfg, logger, nil
}

func runServe(parent context.Context, f *flags) error {
	cfg, logger, err := setup(f)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signalContext(parent)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize app")
		return err
	}

	logger.Info().Str("addr", cfg.Addr()).Msg("starting msgboard server")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func runInitDB(parent context.Context, f *flags) error {
	cfg, logger, err := setup(f)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(parent)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize app")
		return err
	}
	if err := application.InitSchema(ctx); err != nil {
		logger.Error().Err(err).Msg("schema initialization failed")
		return err
	}
	return nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
