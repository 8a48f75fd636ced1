package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"softtennis-coach/catalog"
	"softtennis-coach/config"
	"softtennis-coach/handlers"
	"softtennis-coach/logger"
	"softtennis-coach/middleware"
	"softtennis-coach/services"
	"softtennis-coach/storage"
	"softtennis-coach/utils"
	"softtennis-coach/workers"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
)

func main() {
	dotenvErr := config.LoadDotenv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.App.LogMode)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logg.Sync()
	if dotenvErr != nil {
		logg.Warn("⚠️ No .env file found, reading environment variables directly")
	}

	levels, err := catalog.LoadLevelCatalog(cfg.Catalog.LevelFile)
	if err != nil {
		logg.Fatal("failed to load level catalog", "error", err)
	}
	badges, err := catalog.LoadBadgeCatalog(cfg.Catalog.BadgeFile)
	if err != nil {
		logg.Fatal("failed to load badge catalog", "error", err)
	}

	var backend storage.Backend
	if cfg.Storage.DatabaseURL != "" {
		pg, err := storage.OpenPostgres(cfg.Storage.DatabaseURL)
		if err != nil {
			logg.Fatal("failed to open postgres store", "error", err)
		}
		backend = pg
	} else {
		backend = storage.NewJSONFileStore(cfg.Storage.DataFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	store := services.NewRecordStore(backend, clock, logg.With("component", "record_store"))
	store.Load(ctx)

	progressionService := services.NewProgressionService(
		store,
		services.NewLevelEngine(levels),
		services.NewBadgeEvaluator(badges),
		services.NewTrendAnalyzer(),
		clock,
		logg.With("component", "progression"),
	)

	var backupScheduler gocron.Scheduler
	if cfg.R2.Enabled() && cfg.Backup.Interval > 0 {
		uploader, err := utils.NewR2Uploader(ctx, cfg.R2.AccountID, cfg.R2.AccessKeyID, cfg.R2.AccessKeySecret, cfg.R2.Bucket)
		if err != nil {
			logg.Fatal("failed to initialize R2 client", "error", err)
		}
		backupScheduler, err = progressionService.StartBackupScheduler(uploader, cfg.Backup.Interval, cfg.App.Name)
		if err != nil {
			logg.Fatal("failed to start backup scheduler", "error", err)
		}
		logg.Info("✅ Progress backups scheduled", "interval", cfg.Backup.Interval.String(), "bucket", cfg.R2.Bucket)
	}

	if cfg.Analysis.URL != "" {
		syncClient := workers.NewAnalysisSyncClient(cfg.Analysis.URL, cfg.Analysis.Token)
		go workers.PollAnalyses(ctx, syncClient, progressionService, cfg.Analysis.Interval, logg.With("component", "analysis_sync"))
	}

	app := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
	})
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(logg.With("component", "http")))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.HTTP.AllowedOrigins, ","),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles",
		MaxAge:       86400,
	}))

	handlers.SetupHealthRoutes(app, cfg.App.Name, cfg.App.Version)
	app.Use(middleware.GatewayAuthMiddleware(cfg.HTTP.GatewayToken, logg))
	handlers.SetupProgressionRoutes(app, progressionService)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr); err != nil {
			logg.Error("Server error", "error", err)
			stop()
		}
	}()

	logg.Info("✅ Server running", "addr", cfg.HTTP.Addr, "storage", backend.Name(), "users", store.Len())

	<-ctx.Done()
	logg.Info("Shutting down server...")

	if err := app.ShutdownWithTimeout(cfg.App.ShutdownTimeout); err != nil {
		logg.Error("server shutdown failed", "error", err)
	}
	if backupScheduler != nil {
		if err := backupScheduler.Shutdown(); err != nil {
			logg.Error("backup scheduler shutdown failed", "error", err)
		}
	}

	// final full write so nothing from the last requests is lost
	saveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.Save(saveCtx, store.Snapshot()); err != nil {
		logg.Error("final progress save failed", "error", err)
	}
}
