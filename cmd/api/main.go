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
	echomw "github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/johnquangdev/meeting-scribe/pkg/validator"

	"github.com/johnquangdev/meeting-scribe/internal/adapter/handler"
	"github.com/johnquangdev/meeting-scribe/internal/adapter/repository"
	"github.com/johnquangdev/meeting-scribe/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-scribe/internal/infrastructure/database"
	httpmw "github.com/johnquangdev/meeting-scribe/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-scribe/internal/infrastructure/storage"
	"github.com/johnquangdev/meeting-scribe/internal/usecase/dedup"
	"github.com/johnquangdev/meeting-scribe/internal/usecase/extraction"
	"github.com/johnquangdev/meeting-scribe/internal/usecase/resolution"
	"github.com/johnquangdev/meeting-scribe/internal/usecase/review"
	"github.com/johnquangdev/meeting-scribe/pkg/ai"
	"github.com/johnquangdev/meeting-scribe/pkg/config"
	"github.com/johnquangdev/meeting-scribe/pkg/jwt"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true
	e.HidePort = false

	e.Use(echomw.LoggerWithConfig(echomw.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	log.Println("🔧 Initializing dependencies...")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Run migrations only when explicitly enabled in config.
	// Production deployments should manage schema via sql-migrate.
	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or manage schema with sql-migrate.")
		}
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping migrations; use sql-migrate for schema migrations in CI/CD/production")
	}

	// Embedding cache: in-process by default, Redis when configured
	var embeddingStore cache.EmbeddingStore = cache.NewMemoryEmbeddingStore(cfg.Pipeline.CacheSize, cfg.Pipeline.CacheTTL)
	if cfg.RedisEnabled() {
		log.Println("📦 Connecting to Redis...")
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		embeddingStore = cache.NewRedisEmbeddingStore(redisClient, cfg.Pipeline.CacheTTL, logger)
	}

	// Transcript archival (optional)
	var archiver extraction.TranscriptArchiver
	transcriptStore, err := storage.NewTranscriptStore(&cfg.Storage)
	if err != nil {
		log.Printf("⚠️  Object storage unavailable, transcripts stay in the database only: %v", err)
	} else {
		archiver = transcriptStore
	}

	// Repositories
	log.Println("⚙️  Initializing repositories...")
	meetingRepo := repository.NewMeetingRepository(db)
	changeSetRepo := repository.NewChangeSetRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	identityRepo := repository.NewIdentityRepository(db)

	// AI clients
	log.Println("🤖 Initializing AI components...")
	primary := ai.NewChatClient("primary", cfg.LLM.PrimaryBaseURL, cfg.LLM.PrimaryAPIKey, cfg.LLM.PrimaryModel, cfg.LLM.RequestTimeout)
	var fallback extraction.Provider
	if cfg.LLM.FallbackAPIKey != "" {
		fallback = ai.NewChatClient("fallback", cfg.LLM.FallbackBaseURL, cfg.LLM.FallbackAPIKey, cfg.LLM.FallbackModel, cfg.LLM.RequestTimeout)
	}
	embedder := ai.NewEmbeddingClient(cfg.Embedding.BaseURL, cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.RequestTimeout)

	// Usecases
	orchestrator := extraction.NewOrchestrator(primary, fallback, &cfg.LLM, logger)
	resolver := resolution.NewResolver(identityRepo, logger)
	detector := dedup.NewDetector(embedder, recordRepo, embeddingStore, &cfg.Pipeline, logger)

	extractionService := extraction.NewService(
		meetingRepo, changeSetRepo, recordRepo,
		orchestrator, resolver, detector, archiver,
		cfg, logger,
	)
	reviewService := review.NewService(
		changeSetRepo, meetingRepo, recordRepo, identityRepo,
		resolver, embedder, logger,
	)

	// JWT manager and auth middleware
	jwtManager := jwt.NewManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)
	authMW := httpmw.NewAuthMiddleware(jwtManager)

	// Handlers and routes
	log.Println("🛣️  Setting up routes...")
	meetingHandler := handler.NewMeetingHandler(meetingRepo, changeSetRepo, extractionService, logger)
	reviewHandler := handler.NewReviewHandler(reviewService, logger)
	authHandler := handler.NewAuthHandler(jwtManager, identityRepo, logger)
	router := handler.NewRouter(cfg, meetingHandler, reviewHandler, authHandler, authMW)
	router.Setup(e)

	// Background workers
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	if err := extractionService.StartWorkerPool(workerCtx); err != nil {
		log.Fatalf("Failed to start workers: %v", err)
	}

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	if err := extractionService.StopWorkerPool(); err != nil {
		log.Printf("⚠️  Worker shutdown: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
