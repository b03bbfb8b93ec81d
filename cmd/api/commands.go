package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"docbin/internal/config"
	"docbin/internal/database"
	"docbin/internal/database/migration"
	"docbin/internal/metrics"
	"docbin/internal/notify"
	"docbin/internal/repository"
	"docbin/internal/repository/postgres"
	"docbin/internal/service"
	"docbin/internal/storage"
)

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one retention sweep and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}

			db, err := database.NewPostgres(cmd.Context(), cfg.Database, log)
			if err != nil {
				return err
			}
			defer db.Close()

			m := metrics.New(prometheus.NewRegistry())
			repo := postgres.NewTreePostgres(db)
			svc, err := newLifecycleService(cfg, repo, log, m)
			if err != nil {
				return err
			}

			stats, err := newSweeper(cfg, svc, repo, log, m).RunNow(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), stats.Summary())
			if stats.Failed > 0 {
				return fmt.Errorf("%d entities could not be purged", stats.Failed)
			}
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the folders and files tables if they do not exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}

			db, err := database.NewPostgres(cmd.Context(), cfg.Database, log)
			if err != nil {
				return err
			}
			defer db.Close()

			return migration.EnsureMigrated(cmd.Context(), db, log, cfg.Database.Host)
		},
	}
}

// newMirror builds the configured filesystem mirror behind a bounded disk worker pool.
func newMirror(cfg *config.AppConfig) (storage.Mirror, error) {
	var (
		m   storage.Mirror
		err error
	)
	switch cfg.Storage.Backend {
	case "minio":
		m, err = storage.NewMinIO(cfg.MinIO)
	default:
		m, err = storage.NewLocalMirror(cfg.Storage.Root)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s mirror: %w", cfg.Storage.Backend, err)
	}
	return storage.NewPooledMirror(m, cfg.Storage.DiskWorkers), nil
}

func newNotifier(cfg *config.AppConfig, log zerolog.Logger) notify.Notifier {
	logN := notify.LogNotifier{Log: log.With().Str("component", "notify").Logger()}
	if cfg.Notify.WebhookURL == "" {
		return logN
	}
	return notify.Multi{logN, notify.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Notify.Timeout)}
}

func newLifecycleService(cfg *config.AppConfig, repo repository.TreeRepository, log zerolog.Logger, m *metrics.Metrics) (service.LifecycleService, error) {
	mirror, err := newMirror(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize storage mirror")
		return nil, err
	}
	return service.NewLifecycleService(repo, mirror, service.Options{
		Retention:   cfg.RetentionPeriod,
		StorageRoot: cfg.Storage.Root,
		Logger:      log,
		Metrics:     m,
		Notifier:    newNotifier(cfg, log),
	}), nil
}
