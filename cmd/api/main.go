package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	migrate "github.com/rubenv/sql-migrate"

	pkgvalidator "github.com/johnquangdev/speech-insights/pkg/validator"

	"github.com/johnquangdev/speech-insights/internal/adapter/handler"
	"github.com/johnquangdev/speech-insights/internal/adapter/repository"
	"github.com/johnquangdev/speech-insights/internal/app"
	"github.com/johnquangdev/speech-insights/internal/infrastructure/cache"
	"github.com/johnquangdev/speech-insights/internal/infrastructure/database"
	"github.com/johnquangdev/speech-insights/internal/infrastructure/external/assemblyai"
	httpmw "github.com/johnquangdev/speech-insights/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/speech-insights/internal/infrastructure/storage"
	"github.com/johnquangdev/speech-insights/internal/usecase/analysis"
	"github.com/johnquangdev/speech-insights/pkg/config"
	"github.com/johnquangdev/speech-insights/pkg/jwt"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := app.NewLogger(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false
	e.HTTPErrorHandler = handler.ErrorHandler(logger, e)

	e.Use(middleware.RequestID())

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${id} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	ctx := context.Background()
	logger.Info("🔧 Initializing dependencies...")

	// Initialize Database
	logger.Info("📦 Connecting to database...", zap.String("driver", cfg.Database.Driver))
	db, err := database.NewDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	if cfg.Database.AutoMigrate {
		n, err := database.Migrate(db, cfg.Database.Driver, migrate.Up)
		if err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
		logger.Info("🔄 Migrations applied", zap.Int("count", n))
	} else {
		logger.Info("🔄 Skipping migrations; run `speechctl migrate up` to manage the schema")
	}

	// Classification result cache
	resultCache, err := cache.New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize cache", zap.Error(err))
	}
	if resultCache != nil {
		defer resultCache.Close()
	}
	logger.Info("🗄️ Result cache ready", zap.String("backend", cfg.Cache.Backend))

	// Topic modeling pipeline
	logger.Info("🤖 Initializing classifier...")
	sessionCtx, cancelSession := context.WithTimeout(ctx, 30*time.Second)
	session, err := app.NewSession(sessionCtx, &cfg.Classifier, logger)
	cancelSession()
	if err != nil {
		logger.Fatal("Failed to initialize classifier", zap.Error(err))
	}
	topicService := app.NewTopicService(cfg, session, resultCache, logger)

	// Audio ingestion is optional: it needs both object storage and an analyzer
	var (
		store    analysis.ObjectStore
		analyzer analysis.Analyzer
	)
	if cfg.Storage.Enabled {
		logger.Info("🪣 Connecting to object storage...", zap.String("endpoint", cfg.Storage.Endpoint))
		minioClient, err := storage.NewMinIOClient(ctx, &cfg.Storage)
		if err != nil {
			logger.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		store = minioClient
	}
	if cfg.Assembly.APIKey != "" {
		analyzer = assemblyai.NewAnalyzer(&cfg.Assembly, logger)
	}

	repo := repository.NewSpeechAnalysisRepository(db)
	analysisService, err := analysis.NewService(repo, analyzer, store, cfg.Storage.URLExpiry, cfg.Ingest.Workers, logger)
	if err != nil {
		logger.Fatal("Failed to initialize analysis service", zap.Error(err))
	}
	defer analysisService.Close()

	// Handlers
	topicHandler := handler.NewTopicHandler(topicService, logger)
	analysisHandler := handler.NewAnalysisHandler(analysisService, logger)
	var audioHandler *handler.Audio
	if store != nil && analyzer != nil {
		audioHandler = handler.NewAudioHandler(analysisService, logger)
	} else {
		logger.Warn("⚠️ Audio ingestion disabled; set STORAGE_ENABLED and ASSEMBLYAI_API_KEY to enable it")
	}

	// Optional service-token auth
	var (
		authMW echo.MiddlewareFunc
		scope  func(string) echo.MiddlewareFunc
	)
	if cfg.JWT.Secret != "" {
		logger.Info("🔑 API token auth enabled")
		jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry)
		authMW = httpmw.EchoAuth(jwtManager)
		scope = httpmw.RequireScope
	} else {
		logger.Warn("⚠️ JWT_SECRET is empty, /v1 routes are unauthenticated")
	}

	// Setup router with handlers
	router := handler.NewRouter(cfg, topicHandler, analysisHandler, audioHandler, authMW, scope)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		logger.Info("🚀 Starting server",
			zap.String("addr", addr),
			zap.String("environment", cfg.Server.Environment),
		)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("❌ Server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("✅ Server stopped gracefully")
}
