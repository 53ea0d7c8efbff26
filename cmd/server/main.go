package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mediahub/internal/config"
	handlers "mediahub/internal/handlers/shared"
	"mediahub/internal/media"
	"mediahub/internal/middleware"
	mongorepo "mediahub/internal/repositories/mongodb"
	"mediahub/internal/services"
	"mediahub/pkg/cache"
	"mediahub/pkg/database"
	"mediahub/pkg/logger"
	"mediahub/pkg/metrics"
	"mediahub/pkg/storage"
	"mediahub/routes"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	rollbackTo := flag.Int("rollback-to", -1, "revert index migrations down to this version and exit")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		Output:  cfg.App.LogOutput,
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	mongoDB, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer mongoDB.Close()

	migrator := database.NewMigrator(mongoDB.Database, appLogger)
	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), time.Minute)
	if *rollbackTo >= 0 {
		err := migrator.Down(migrateCtx, *rollbackTo)
		cancelMigrate()
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to roll back migrations")
		}
		appLogger.WithField("version", *rollbackTo).Info("Migrations rolled back")
		return
	}
	if err := migrator.Up(migrateCtx); err != nil {
		appLogger.WithError(err).Fatal("Failed to run migrations")
	}
	cancelMigrate()

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisCache.Close()

	// Storage adapters are built on first use
	storageFactory := storage.NewFactory(storage.FactoryConfig{
		S3:    cfg.Storage.S3,
		GCS:   cfg.Storage.GCS,
		Local: cfg.Storage.Local,
	})
	appLogger.WithField("providers", storageFactory.ConfiguredProviders()).Info("Storage providers configured")

	// Repositories
	projectRepo := mongorepo.NewProjectRepository(mongoDB, redisCache, cfg.Redis.ProjectTTL)
	assetRepo := mongorepo.NewAssetRepository(mongoDB)

	// Services
	thumbnailer := media.NewThumbnailer(media.ThumbnailerConfig{
		FFmpegPath:  cfg.Media.FFmpegPath,
		FFprobePath: cfg.Media.FFprobePath,
		Offset:      cfg.Media.ThumbnailOffset,
		MaxEdge:     cfg.Media.ThumbnailMaxEdge,
		Timeout:     cfg.Media.ThumbnailTimeout,
	}, appLogger)

	uploadService := services.NewUploadService(
		projectRepo,
		assetRepo,
		storageFactory,
		media.NewEngine(cfg.Media.VariantConcurrency, appLogger),
		thumbnailer,
		services.UploadServiceConfig{
			MaxUploadSize: cfg.Media.MaxUploadSize,
			PresignExpiry: cfg.Storage.PresignExpiry,
		},
		appLogger,
	)

	// Initialize handlers
	uploadHandler := handlers.NewUploadHandler(uploadService, appLogger)
	healthHandler := handlers.NewHealthHandler(map[string]handlers.Pinger{
		"mongodb": mongoDB,
		"redis":   redisCache,
	})

	var localUploadHandler *handlers.LocalUploadHandler
	if cfg.Storage.Local.BasePath != "" {
		if adapter, err := storageFactory.Get(storage.ProviderLocal); err == nil && adapter.IsConfigured() {
			if uploader, ok := adapter.(handlers.LocalUploader); ok {
				localUploadHandler = handlers.NewLocalUploadHandler(uploader, cfg.Media.MaxUploadSize, appLogger)
			}
		}
	}

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))

	// API routes
	v1 := router.Group("/api/v1")
	{
		routes.SetupUploadRoutes(v1, uploadHandler, routes.UploadRouteDeps{
			JWTSecret:   cfg.Security.JWTSecret,
			Projects:    projectRepo,
			Limiter:     redisCache,
			RateLimit:   cfg.RateLimit.UploadsPerWindow,
			RateWindow:  cfg.RateLimit.Window,
			Logger:      appLogger,
			LocalUpload: localUploadHandler,
		})
	}

	if localUploadHandler != nil {
		router.Static("/files", cfg.Storage.Local.BasePath)
	}

	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithField("port", cfg.App.Port).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}
}
