package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/marketlens/seasonality-analyzer/internal/api"
	"github.com/marketlens/seasonality-analyzer/internal/calendar"
	"github.com/marketlens/seasonality-analyzer/internal/config"
	"github.com/marketlens/seasonality-analyzer/internal/ingestion"
	"github.com/marketlens/seasonality-analyzer/internal/refdata"
	"github.com/marketlens/seasonality-analyzer/internal/service"
	"github.com/marketlens/seasonality-analyzer/internal/storage/cache"
	"github.com/marketlens/seasonality-analyzer/internal/storage/postgres"
	pkglogger "github.com/marketlens/seasonality-analyzer/pkg/logger"
)

// @title Seasonality Analyzer API
// @version 1.0
// @description Calendar seasonality analytics over per-ticker OHLCV series

// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
func main() {
	cfg := config.Load()

	if err := pkglogger.Init(cfg.LogLevel, cfg.Environment == "development"); err != nil {
		log.Fatal("initializing logger:", err)
	}
	defer pkglogger.Close()

	db, err := connectPostgres(cfg)
	if err != nil {
		log.Fatal("connecting to postgres:", err)
	}
	defer db.Close()

	cacheService := connectRedis(cfg)
	if cacheService != nil {
		defer cacheService.Close()
	}

	elections, ok := refdata.ElectionYears(cfg.ElectionCategory, cfg.ElectionCountry)
	if !ok {
		log.Fatalf("no election table for %s/%s", cfg.ElectionCategory, cfg.ElectionCountry)
	}

	// Services
	store := postgres.NewPriceStore(db.Pool())
	enricher := calendar.NewEnricher(elections)
	pool := service.NewComputePool(cfg.ComputeWorkers)

	var resultCache service.ResultCache
	if cacheService != nil {
		resultCache = cacheService
	}
	seasonalityService := service.NewSeasonalityService(store, resultCache, enricher, pool)

	// Ingestion
	parser := ingestion.NewParser(cfg.BatchSize, cfg.IngestWorkers)
	loader := ingestion.NewBulkLoader(db.Pool(), cfg.BatchSize)
	ingestionService := service.NewIngestionService(parser, loader)

	handler := api.NewHandler(db, store, cacheService, seasonalityService, ingestionService)

	app := fiber.New(fiber.Config{
		Prefork:         false,
		ServerHeader:    "Seasonality-Analyzer",
		AppName:         "Seasonality Analyzer v1.0.0",
		ReadTimeout:     cfg.APIReadTimeout,
		WriteTimeout:    cfg.APIWriteTimeout,
		IdleTimeout:     120 * time.Second,
		ReadBufferSize:  8192,
		WriteBufferSize: 8192,
		ProxyHeader:     "X-Forwarded-For",
		BodyLimit:       10 * 1024 * 1024, // 10MB
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	api.SetupRoutes(app, handler, cfg)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("Starting server on %s", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatal("Server error:", err)
	}
}

func connectPostgres(cfg *config.Config) (*postgres.DB, error) {
	db, err := postgres.NewDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("testing connection: %w", err)
	}

	log.Println("connected to PostgreSQL")
	return db, nil
}

func connectRedis(cfg *config.Config) *cache.RedisCache {
	redisCache, err := cache.NewRedisCache(cfg)
	if err != nil {
		log.Printf("redis unavailable: %v (continuing without cache)", err)
		return nil
	}

	log.Println("connected to Redis")
	return redisCache
}
