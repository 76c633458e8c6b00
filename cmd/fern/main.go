package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/loader"
	"github.com/Ramsey-B/fern/internal/repositories/recording"
	"github.com/Ramsey-B/fern/pkg/alert"
	"github.com/Ramsey-B/fern/pkg/archive"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/extractor"
	"github.com/Ramsey-B/fern/pkg/health"
	"github.com/Ramsey-B/fern/pkg/httpclient"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/logging"
	"github.com/Ramsey-B/fern/pkg/pipeline"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/transformer"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "fern",
		Short:         "Plant telemetry pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(pipelineCmd(), archiveCmd(), alertCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds the process-wide dependencies shared by every command.
type app struct {
	cfg    *config.Config
	logger ectologger.Logger

	flushLogs       func()
	shutdownTracing func(context.Context) error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, flush, err := logging.New(cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, flushLogs: flush}

	if cfg.TracingEnabled {
		shutdown, err := tracing.Init(ctx, cfg.AppName, tracing.Config{
			Enabled:  cfg.TracingEnabled,
			Endpoint: cfg.TracingEndpoint,
			Protocol: cfg.TracingProtocol,
			Insecure: cfg.TracingInsecure,
			Timeout:  cfg.TracingTimeout,
		})
		if err != nil {
			return nil, err
		}
		a.shutdownTracing = shutdown
	}

	return a, nil
}

func (a *app) close(ctx context.Context) {
	if a.shutdownTracing != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.shutdownTracing(shutdownCtx); err != nil {
			a.logger.WithError(err).Warn("Failed to shut down tracing")
		}
	}
	if a.flushLogs != nil {
		a.flushLogs()
	}
}

func (a *app) databaseConfig() database.Config {
	return database.Config{
		Driver:          a.cfg.DatabaseDriver,
		Host:            a.cfg.DatabaseHost,
		Port:            a.cfg.DatabasePort,
		Username:        a.cfg.DatabaseUserName,
		Password:        a.cfg.DatabasePassword,
		Name:            a.cfg.DatabaseName,
		SSLMode:         a.cfg.DatabaseSSLMode,
		MaxOpenConns:    a.cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    a.cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: a.cfg.DatabaseConnMaxLifetime,
		MaxAttempts:     a.cfg.StartupMaxAttempts,
	}
}

func (a *app) connectAndMigrate(ctx context.Context) (database.DB, error) {
	db, err := database.Connect(ctx, a.databaseConfig(), a.logger)
	if err != nil {
		return nil, err
	}

	migrations := database.NewMigrationService(a.logger, &database.MigrationConfig{
		MigrationFolderPath: a.cfg.DatabaseMigrationFolderPath,
		Version:             uint(a.cfg.DatabaseMigrationVersion),
		Force:               a.cfg.DatabaseMigrationForce,
		AutoRollback:        a.cfg.DatabaseMigrationAutoRollback,
	})
	if err := migrations.Migrate(a.cfg.DatabaseName, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (a *app) archiveStore(ctx context.Context) (*archive.Store, error) {
	if !a.cfg.ArchiveEnabled {
		return nil, nil
	}
	return archive.NewStore(ctx, archive.Config{
		Bucket:    a.cfg.ArchiveBucket,
		Region:    a.cfg.ArchiveRegion,
		Endpoint:  a.cfg.ArchiveEndpoint,
		PathStyle: a.cfg.ArchivePathStyle,
		KeyPrefix: a.cfg.ArchiveKeyPrefix,
	}, a.logger)
}

func (a *app) redisLocker() (*redis.Client, *redis.Locker, error) {
	client, err := redis.NewClient(redis.Config{
		Host:        a.cfg.RedisHost,
		Port:        a.cfg.RedisPort,
		Password:    a.cfg.RedisPassword,
		DB:          a.cfg.RedisDB,
		MaxAttempts: a.cfg.StartupMaxAttempts,
	}, a.logger)
	if err != nil {
		return nil, nil, err
	}
	return client, redis.NewLocker(client, a.cfg.RedisLockPrefix), nil
}

// pipelineCmd runs one extract-transform-load batch and exits.
func pipelineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pipeline",
		Short: "Run one extract, transform, load batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			db, err := a.connectAndMigrate(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			redisClient, locker, err := a.redisLocker()
			if err != nil {
				return err
			}
			defer redisClient.Close()

			store, err := a.archiveStore(ctx)
			if err != nil {
				return err
			}

			client := httpclient.NewClient(httpclient.Config{Timeout: a.cfg.PlantAPITimeout}, a.logger)
			ext := extractor.New(extractor.Config{
				BaseURL:     a.cfg.PlantAPIBaseURL,
				StartID:     a.cfg.PlantStartID,
				TargetCount: a.cfg.PlantTargetCount,
				MaxAttempts: a.cfg.PlantMaxAttempts,
				Workers:     a.cfg.ExtractWorkers,
			}, client, a.logger)

			runner := pipeline.NewRunner(
				ext,
				transformer.New(a.logger),
				loader.New(db, a.cfg.DatabaseSchema, a.logger),
				store,
				locker,
				pipeline.Config{
					LoadPolicy:   loader.Policy(a.cfg.LoadPolicy),
					ArtifactsDir: a.cfg.ArtifactsDir,
					Archive:      a.cfg.ArchiveEnabled,
				},
				a.logger,
			)

			return runner.Run(ctx)
		},
	}
}

// archiveCmd summarizes the recent window of stored recordings and uploads
// the result.
func archiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Summarize recent recordings and upload the CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			if !a.cfg.ArchiveEnabled {
				return fmt.Errorf("archiving is disabled, set ARCHIVE_ENABLED and ARCHIVE_BUCKET")
			}

			db, err := database.Connect(ctx, a.databaseConfig(), a.logger)
			if err != nil {
				return err
			}
			defer db.Close()

			store, err := a.archiveStore(ctx)
			if err != nil {
				return err
			}

			repo := recording.NewRepository(db, a.cfg.DatabaseSchema, a.logger)
			since := time.Now().Add(-a.cfg.SummaryWindow)
			tables, err := repo.GetTablesSince(ctx, since)
			if err != nil {
				return err
			}

			summary := transformer.Summarize(tables)
			body, err := archive.SummaryCSV(summary)
			if err != nil {
				return err
			}
			if err := store.Upload(ctx, archive.ObjectKey(summary), body, "text/csv"); err != nil {
				return err
			}

			a.logger.WithContext(ctx).Infof("Archived summary for %d plants", len(summary))
			return nil
		},
	}
}

// alertCmd runs the long-lived breach scanner with its health server.
func alertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alert",
		Short: "Scan recordings and publish threshold breaches",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			db, err := database.Connect(ctx, a.databaseConfig(), a.logger)
			if err != nil {
				return err
			}
			defer db.Close()

			redisClient, locker, err := a.redisLocker()
			if err != nil {
				return err
			}
			defer redisClient.Close()

			producer := kafka.NewProducer(kafka.ParseConfig(a.cfg.KafkaBrokers, a.cfg.KafkaAlertTopic), a.logger)
			defer producer.Close()

			repo := recording.NewRepository(db, a.cfg.DatabaseSchema, a.logger)
			service := alert.NewService(repo, producer, locker, alert.Config{
				PollInterval: a.cfg.AlertPollInterval,
				Lookback:     a.cfg.AlertLookback,
				Thresholds: alert.Thresholds{
					TemperatureMin:  a.cfg.AlertTemperatureMin,
					TemperatureMax:  a.cfg.AlertTemperatureMax,
					SoilMoistureMin: a.cfg.AlertSoilMoistureMin,
					SoilMoistureMax: a.cfg.AlertSoilMoistureMax,
				},
			}, a.logger)

			if err := service.Start(ctx); err != nil {
				return err
			}

			checker := health.NewChecker(db, redisClient.Redis(), version)
			checker.SetReady(true)

			serveErr := health.Serve(ctx, fmt.Sprintf(":%d", a.cfg.Port), checker, a.logger)

			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := service.Stop(stopCtx); err != nil {
				a.logger.WithError(err).Warn("Alert service did not stop cleanly")
			}

			return serveErr
		},
	}
}
