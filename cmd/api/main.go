package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"doclib/internal/config"
	"doclib/internal/database"
	"doclib/internal/database/migration"
	handlers "doclib/internal/http/handler"
	"doclib/internal/http/middleware"
	"doclib/internal/otel"
	"doclib/internal/repository/postgres"
	"doclib/internal/service"
	"doclib/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	loc := time.UTC

	// Tracing: OTLP exporter, degrades to noop when disabled or unreachable
	shutdownTracing, err := otel.Init(context.Background(), loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	// Apply idempotent schema migrations at startup
	if err := migration.EnsureMigrated(context.Background(), db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Select the storage backend; exactly one is live per deployment
	store, err := newBackend(cfg, db)
	if err != nil {
		log.Fatalf("failed to initialize storage backend: %v", err)
	}

	// Initialize repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	catRepo := postgres.NewCategoryPostgres(db)
	dlRepo := postgres.NewDownloadPostgres(db)

	locks := service.NewScopeLocks()
	uploadSvc := service.NewUploadService(store, docRepo, catRepo, locks, cfg.Storage)
	docSvc := service.NewDocumentService(store, docRepo, catRepo, dlRepo, locks,
		time.Duration(cfg.Storage.PresignExpirySec)*time.Second)
	reorderSvc := service.NewReorderService(docRepo, catRepo, locks)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.Storage.MaxUploadBytes) + 1024*1024,
	})

	// Metrics registry: process/go collectors plus the HTTP request metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Identity())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, uploadSvc, docSvc, reorderSvc)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

// newBackend builds the configured storage backend.
func newBackend(cfg *config.AppConfig, db *sql.DB) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case "embedded":
		return storage.NewEmbedded(db)
	case "s3":
		return storage.NewMinIO(cfg.MinIO)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
