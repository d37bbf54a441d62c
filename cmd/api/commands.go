package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"codeapi/docs"
	"codeapi/internal/config"
	"codeapi/internal/database"
	"codeapi/internal/database/migration"
	handlers "codeapi/internal/http/handler"
	"codeapi/internal/http/middleware"
	"codeapi/internal/logging"
	"codeapi/internal/otel"
	"codeapi/internal/paging"
	"codeapi/internal/repository/postgres"
	"codeapi/internal/service"
	"codeapi/internal/storage"
)

func newRootCommand() *cobra.Command {
	var cfg *config.AppConfig

	root := &cobra.Command{
		Use:           appName,
		Short:         "Reference code lookup service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// Load configuration from environment variables (.env auto-loaded if present)
			cfg = config.Load()
			if cfg.Version == "dev" {
				cfg.Version = version
			}
			logging.Setup(cfg.Log.Level, cfg.Log.Format)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
	root.SetVersionTemplate(appName + " {{.Version}}\n")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server (default)",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context(), cfg)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create the schema if it does not exist",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return migrate(cmd.Context(), cfg)
			},
		},
		newPublishCommand(&cfg),
	)
	return root
}

func newPublishCommand(cfg **config.AppConfig) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "publish-srsnames",
		Short: "Render the public SRS names archive and upload it to object storage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return publishSrsnames(cmd.Context(), *cfg, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "re-upload even if the current revision is already published")
	return cmd
}

func openDatabase(ctx context.Context, cfg *config.AppConfig) (*sql.DB, error) {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

// openStorage returns nil when object storage is not configured.
func openStorage(ctx context.Context, cfg *config.AppConfig) (storage.Storage, error) {
	if !cfg.MinIO.Enabled() {
		return nil, nil
	}
	store, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		return nil, fmt.Errorf("initialize object storage: %w", err)
	}
	return store, nil
}

func migrate(ctx context.Context, cfg *config.AppConfig) error {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return migration.EnsureMigrated(ctx, db, cfg.Database.Host)
}

func publishSrsnames(ctx context.Context, cfg *config.AppConfig, force bool) error {
	if !cfg.MinIO.Enabled() {
		return errors.New("publish-srsnames needs MINIO_ENDPOINT")
	}
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}

	info, err := service.NewSrsnamesService(postgres.NewSrsnamesPostgres(db), store).Publish(ctx, force)
	if err != nil {
		return err
	}
	link, err := store.PresignGet(ctx, info.Key, 7*24*time.Hour)
	if err != nil {
		return fmt.Errorf("presign %s: %w", info.Key, err)
	}
	logging.Default().Info().Str("key", info.Key).Str("url", link).Msg("download link valid for 7 days")
	return nil
}

func serve(ctx context.Context, cfg *config.AppConfig) error {
	log := logging.Default()

	shutdownTracing, err := otel.Init(ctx, appName)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Error().Err(err).Msg("tracing shutdown")
		}
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, cfg.Database.Host); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// Object storage only serves pre-published archives; start without it.
	store, err := openStorage(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Msg("object storage unavailable, archives will be rendered on demand")
		store = nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return err
	}
	lookupMetrics, err := service.NewMetrics(reg)
	if err != nil {
		return err
	}

	// Initialize repositories and services
	codeSvc := service.NewCodeService(
		postgres.NewCodePostgres(db),
		postgres.NewLastUpdatePostgres(db),
		service.WithMetrics(lookupMetrics),
	)
	srsSvc := service.NewSrsnamesService(postgres.NewSrsnamesPostgres(db), store)

	docs.Build(cfg.Version)

	app := fiber.New(fiber.Config{
		AppName:      appName,
		ErrorHandler: handlers.ErrorHandler(),
	})

	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics" || c.Path() == "/healthz"
	})))
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(promMiddleware.Handler())
	app.Use(middleware.Timeout(cfg.RequestTimeout))

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:       db,
		Codes:    codeSvc,
		Srsnames: srsSvc,
		Paging:   paging.Defaults{Limit: cfg.Paging.DefaultLimit, MaxLimit: cfg.Paging.MaxLimit},
		Name:     appName,
		Version:  cfg.Version,
		Gatherer: reg,
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("version", cfg.Version).Msg("server starting")
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("start server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}
