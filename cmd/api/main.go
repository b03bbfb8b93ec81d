package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"docbin/internal/config"
	"docbin/internal/database"
	"docbin/internal/database/migration"
	handlers "docbin/internal/http/handler"
	"docbin/internal/http/middleware"
	"docbin/internal/logging"
	"docbin/internal/metrics"
	"docbin/internal/otel"
	"docbin/internal/repository/postgres"
	"docbin/internal/sweeper"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "docbin",
		Short: "docbin - recycle bin and retention lifecycle for a folder/file tree",
		Long: `docbin manages the Active -> Binned -> Purged lifecycle of folders and files.

Binning a folder bins its whole subtree, restoring brings back the subtree and
any binned ancestors, and purging removes database rows and mirrored disk
objects. A background sweeper purges everything whose retention has expired.

Configuration is read from the environment (a .env file is loaded if present).`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API and the background retention sweeper",
			RunE:  runServe,
		},
		newSweepCmd(),
		newMigrateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads and validates configuration and builds the process logger.
func bootstrap() (*config.AppConfig, zerolog.Logger, error) {
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.LogLevel, cfg.Location())
	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return nil, log, err
	}
	return cfg, log, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown failed")
		}
	}()

	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	repo := postgres.NewTreePostgres(db)
	svc, err := newLifecycleService(cfg, repo, log, m)
	if err != nil {
		return err
	}

	sw := newSweeper(cfg, svc, repo, log, m)
	sw.Start()

	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("http metrics: %w", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: true,
	})

	// RequestID first so every later middleware and handler sees the id
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Actor())
	app.Use(middleware.Logger(log))
	app.Use(promMW.Handler())

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:         db,
		Service:    svc,
		Sweeper:    sw,
		Authorizer: handlers.NewRoleAuthorizer(cfg.AllowedRoles),
		Gatherer:   reg,
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("storage_backend", cfg.Storage.Backend).Msg("server listening")
		errCh <- app.Listen(addr)
	}()

	select {
	case err = <-errCh:
		log.Error().Err(err).Msg("failed to start server")
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	if serr := app.ShutdownWithTimeout(10 * time.Second); serr != nil {
		log.Warn().Err(serr).Msg("http shutdown failed")
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.Sweep.Timeout)
	defer cancel()
	if serr := sw.Stop(sctx); serr != nil && !errors.Is(serr, context.DeadlineExceeded) {
		log.Warn().Err(serr).Msg("sweeper stop failed")
	}
	return err
}

func newSweeper(cfg *config.AppConfig, purger sweeper.Purger, lister sweeper.ExpiredLister, log zerolog.Logger, m *metrics.Metrics) *sweeper.Sweeper {
	return sweeper.New(purger, lister, sweeper.Config{
		Enabled:  cfg.Sweep.Enabled,
		Interval: cfg.Sweep.Interval,
		Timeout:  cfg.Sweep.Timeout,
	}, log, m)
}
