package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yishak-cs/food-recommender/internal/cache"
	"github.com/yishak-cs/food-recommender/internal/database"
	"github.com/yishak-cs/food-recommender/internal/handlers"
	"github.com/yishak-cs/food-recommender/internal/memstore"
	"github.com/yishak-cs/food-recommender/internal/middleware"
	"github.com/yishak-cs/food-recommender/internal/services"
	"github.com/yishak-cs/food-recommender/pkg/helper"
	"github.com/yishak-cs/food-recommender/pkg/logger"
)

// primaryStore is what either backend provides.
type primaryStore interface {
	services.HistoryProvider
	services.Catalog
	services.RecommendationStore
	services.CounterStore
	handlers.HealthChecker
}

func main() {
	envErr := godotenv.Load()

	bootLog, err := logger.New(os.Getenv("LOG_MODE"), os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer bootLog.Sync()
	if envErr != nil {
		bootLog.Warn("No .env file loaded", "error", envErr)
	}

	cfg := helper.LoadConfigFromEnv(bootLog)
	log := bootLog.With("app", "food-recommender")

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, closeStore, err := openPrimaryStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open store", "backend", cfg.StoreBackend, "error", err)
	}
	defer closeStore()

	health := map[string]handlers.HealthChecker{cfg.StoreBackend: store}
	var recommendations services.RecommendationStore = store
	if cfg.CacheBackend == helper.CacheRedis {
		redisStore, err := cache.NewRedisStore(ctx, cache.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
			TTL:  cfg.Recommender.FreshnessWindow,
		}, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis", "addr", cfg.RedisAddr, "error", err)
		}
		defer redisStore.Close()
		recommendations = redisStore
		health[helper.CacheRedis] = redisStore
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	recommendationService, err := services.NewRecommendationService(cfg.Recommender, services.Dependencies{
		History:         store,
		Catalog:         store,
		Recommendations: recommendations,
		Counter:         store,
		Metrics:         services.NewMetrics(registry),
		Logger:          log,
	})
	if err != nil {
		log.Fatal("Failed to create recommendation service", "error", err)
	}

	apiHandler := handlers.NewAPIHandler(recommendationService, health, log)
	verifier := middleware.NewTokenVerifier(cfg.JWTSecret)

	if cfg.LogMode == "prod" || cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	apiHandler.SetupRoutes(router, verifier)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
	})

	// Create server with graceful shutdown
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "store", cfg.StoreBackend, "cache", cfg.CacheBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		return
	}

	log.Info("Server exited properly")
}

// openPrimaryStore connects the configured backend, applies the schema and
// runs the optional CSV seed.
func openPrimaryStore(ctx context.Context, cfg helper.AppConfig, log *logger.Logger) (primaryStore, func(), error) {
	switch cfg.StoreBackend {
	case helper.StoreMemory:
		log.Warn("Using in-memory store; data is lost on restart")
		return memstore.New(), func() {}, nil
	case helper.StoreNeo4j:
		client, err := database.NewNeo4jClient(ctx, cfg.Neo4j, log)
		if err != nil {
			return nil, nil, err
		}
		closeClient := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Close(closeCtx); err != nil {
				log.Error("Error closing Neo4j connection", "error", err)
			}
		}

		if err := database.EnsureSchema(ctx, client); err != nil {
			closeClient()
			return nil, nil, err
		}
		if cfg.SeedDataURL != "" {
			importer := database.NewCSVImporter(client, log)
			if err := importer.ImportAllData(ctx, cfg.SeedDataURL); err != nil {
				closeClient()
				return nil, nil, fmt.Errorf("seed import failed: %w", err)
			}
			status, err := importer.GetImportStatus(ctx)
			if err != nil {
				closeClient()
				return nil, nil, fmt.Errorf("failed to get import status: %w", err)
			}
			log.Info("Seed data loaded", "status", status)
		}
		return database.NewGraphStore(client), closeClient, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
