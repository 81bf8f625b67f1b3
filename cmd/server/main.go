package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fable-server/internal/cache"
	"fable-server/internal/config"
	"fable-server/internal/generator"
	"fable-server/internal/handler"
	"fable-server/internal/logger"
	"fable-server/internal/middleware"
	"fable-server/internal/repository"
	"fable-server/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	log.Println("Starting Fable Server...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	zapLogger.Info("Logger initialized", zap.String("logLevel", cfg.LogLevel))

	if cfg.RunMigrations {
		if err := runMigrations(cfg, zapLogger); err != nil {
			zapLogger.Fatal("Database migration failed", zap.Error(err))
		}
	}

	dbPool, err := setupDatabase(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()
	zapLogger.Info("Connected to PostgreSQL")

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	defer func() { _ = redisClient.Close() }()
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		// The cache degrades to recomputation, so Redis being down is not fatal.
		zapLogger.Warn("Redis unavailable, analytics caching degraded", zap.Error(err))
	} else {
		zapLogger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
	}
	pingCancel()

	// Repositories
	storyRepo := repository.NewPgStoryRepository(dbPool, zapLogger)
	profileRepo := repository.NewPgProfileRepository(dbPool, zapLogger)
	trackingRepo := repository.NewPgTrackingRepository(dbPool, zapLogger)
	analyticsRepo := repository.NewPgAnalyticsRepository(dbPool, zapLogger)

	// External generator
	genClient := generator.NewOpenAIClient(generator.Config{
		APIKey:  cfg.GeneratorAPIKey,
		BaseURL: cfg.GeneratorBaseURL,
		Model:   cfg.GeneratorModel,
		Timeout: cfg.GeneratorTimeout,
	}, zapLogger)

	analyticsCache := cache.NewRedisAnalyticsCache(redisClient, cfg.AnalyticsCacheTTL, zapLogger)

	// Services
	graphService := service.NewGraphService(storyRepo, zapLogger)
	personalizationService := service.NewPersonalizationService(storyRepo, profileRepo, genClient, zapLogger)
	trackingService := service.NewTrackingService(trackingRepo, profileRepo, zapLogger)
	analyticsService := service.NewAnalyticsService(analyticsRepo, zapLogger)

	apiHandler := handler.NewHandler(
		graphService,
		personalizationService,
		trackingService,
		analyticsService,
		analyticsCache,
		cfg.DashboardToken,
		zapLogger,
	)

	// HTTP server
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.ZapLoggingMiddleware(zapLogger))
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Dashboard-Token", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	prom := ginprometheus.NewPrometheus("fable")
	prom.Use(router)

	apiHandler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		zapLogger.Info("HTTP server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server stopped")
}

func setupDatabase(cfg *config.Config, zapLogger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	zapLogger.Debug("Database pool configured",
		zap.Int32("maxConns", poolConfig.MaxConns),
		zap.Int32("minConns", poolConfig.MinConns))
	return pool, nil
}

func runMigrations(cfg *config.Config, zapLogger *zap.Logger) error {
	m, err := migrate.New(cfg.MigrationsPath, cfg.GetDSN())
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	defer func() {
		if _, dbErr := m.Close(); dbErr != nil {
			zapLogger.Warn("Failed to close migration handle", zap.Error(dbErr))
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			zapLogger.Info("Database schema is up to date")
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}
	zapLogger.Info("Database migrations applied")
	return nil
}
