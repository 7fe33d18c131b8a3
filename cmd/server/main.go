package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feedbird/feedbird/backend/internal/config"
	"github.com/feedbird/feedbird/backend/internal/database"
	"github.com/feedbird/feedbird/backend/internal/handlers"
	"github.com/feedbird/feedbird/backend/internal/logger"
	"github.com/feedbird/feedbird/backend/internal/metrics"
	"github.com/feedbird/feedbird/backend/internal/platforms"
	"github.com/feedbird/feedbird/backend/internal/repository"
	"github.com/feedbird/feedbird/backend/internal/runlock"
	"github.com/feedbird/feedbird/backend/internal/sync"
	"github.com/feedbird/feedbird/backend/internal/tokens"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg := config.Load()

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	// Missing platform credentials surface per-invocation through the
	// structured envelope; a missing database URL makes the server useless
	if cfg.DatabaseURL == "" {
		logger.Log.Fatal("DATABASE_URL (or DB_HOST et al.) is required")
	}
	if missing := cfg.Missing(); len(missing) > 0 {
		logger.Warnf("Missing configuration, sync invocations will fail until set: %v", missing)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal("Failed to connect to database: " + err.Error())
	}
	defer database.Close(db)

	metrics.Initialize()

	// Optional run lock; the engine degrades to lockless without Redis
	var lock *runlock.Lock
	if cfg.RedisEnabled() {
		lock, err = runlock.New(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			logger.ErrorWithFields("Redis unavailable, running without the run lock", err)
			lock = nil
		} else {
			defer lock.Close()
		}
	}

	pageRepo := repository.NewPageRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	registry := platforms.NewRegistryFromConfig(cfg)
	tokenManager := tokens.NewManager(pageRepo)
	orchestrator := sync.NewOrchestrator(pageRepo, snapshotRepo, registry, tokenManager)
	entrypoint := sync.NewEntrypoint(cfg, db, lock, orchestrator)

	router := handlers.SetupRouter(entrypoint, db)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8790"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		logger.Infof("Analytics sync server listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Server failed: " + err.Error())
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorWithFields("Forced shutdown", err)
	}
}
