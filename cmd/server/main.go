package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appintegration "github.com/gearsync/backend/internal/application/integration"
	"github.com/gearsync/backend/internal/domain/integration"
	"github.com/gearsync/backend/internal/infrastructure/config"
	"github.com/gearsync/backend/internal/infrastructure/lock"
	"github.com/gearsync/backend/internal/infrastructure/logger"
	"github.com/gearsync/backend/internal/infrastructure/marketplace"
	"github.com/gearsync/backend/internal/infrastructure/persistence"
	"github.com/gearsync/backend/internal/infrastructure/scheduler"
	"github.com/gearsync/backend/internal/interfaces/http/handler"
	"github.com/gearsync/backend/internal/interfaces/http/middleware"
	"github.com/gearsync/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting GearSync Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	catalogRepo := persistence.NewGormCatalogRepository(db.DB)
	eventRepo := persistence.NewGormSyncEventRepository(db.DB)

	// Reconcile lock: distributed through Redis when enabled, otherwise a
	// single-process mutex.
	var reconcileLock integration.ReconcileLock
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		reconcileLock = lock.NewRedisReconcileLock(redisClient, cfg.Sync.JobTimeout, log)
		log.Info("Redis reconcile lock enabled", zap.String("addr", cfg.Redis.Addr()))
	} else {
		reconcileLock = lock.NewLocalReconcileLock()
	}

	// Build marketplace adapters from configuration
	registry, err := marketplace.NewRegistryFromConfig(cfg.Platforms, cfg.Sync.DetailFetchWorkers, log)
	if err != nil {
		log.Fatal("Failed to build marketplace registry", zap.Error(err))
	}
	log.Info("Marketplace adapters configured", zap.Int("platforms", len(registry.Codes())))

	// Initialize application services
	inboundService := appintegration.NewInboundSyncService(registry, catalogRepo, eventRepo, log)
	reconcileEngine := appintegration.NewReconciliationEngine(eventRepo, catalogRepo, registry, reconcileLock, log)
	eventService := appintegration.NewSyncEventService(eventRepo, catalogRepo, log)

	// Sync scheduler: worker pool plus the periodic per-platform trigger
	schedulerConfig := scheduler.CatalogSyncSchedulerConfig{
		MaxConcurrentJobs: cfg.Sync.MaxConcurrentJobs,
		JobTimeout:        cfg.Sync.JobTimeout,
		RetryAttempts:     cfg.Sync.RetryAttempts,
		RetryDelay:        cfg.Sync.RetryDelay,
	}
	executor := scheduler.NewInboundSyncExecutor(inboundService)
	syncScheduler, err := scheduler.NewCatalogSyncScheduler(schedulerConfig, executor, log)
	if err != nil {
		log.Fatal("Failed to create sync scheduler", zap.Error(err))
	}
	if err := syncScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start sync scheduler", zap.Error(err))
	}
	defer func() {
		if err := syncScheduler.Stop(context.Background()); err != nil {
			log.Error("Error stopping sync scheduler", zap.Error(err))
		}
	}()

	if cfg.Sync.Enabled {
		trigger := scheduler.NewCatalogSyncTrigger(scheduler.CatalogSyncTriggerConfig{
			SyncInterval: cfg.Sync.Interval,
		}, syncScheduler, registry, log)
		if err := trigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync trigger", zap.Error(err))
		}
		defer func() {
			if err := trigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping sync trigger", zap.Error(err))
			}
		}()
		log.Info("Periodic sync enabled",
			zap.Duration("interval", cfg.Sync.Interval),
			zap.Int("max_concurrent_jobs", cfg.Sync.MaxConcurrentJobs),
		)
	}

	// Initialize HTTP handlers
	syncHandler := handler.NewSyncHandler(inboundService, reconcileEngine, eventService, syncScheduler)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router with custom middleware
	engine := gin.New()

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. CORS - Handle cross-origin requests
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORS())

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(syncHandler).Register(systemHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
