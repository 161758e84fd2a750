package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/menuvision/backend/config"
	"github.com/menuvision/backend/internal/api"
	"github.com/menuvision/backend/internal/database"
	"github.com/menuvision/backend/internal/middleware"
	"github.com/menuvision/backend/internal/server"
	"github.com/menuvision/backend/internal/service"
	"github.com/menuvision/backend/internal/storage"
	"github.com/menuvision/backend/internal/store"
)

func main() {
	// Local development reads a .env file; deployments set real env vars
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Storage: in-memory by default, Postgres when DATABASE_URL is set
	var st store.Store = store.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		db, err := database.New(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		gormStore, err := store.NewGormStore(db)
		if err != nil {
			log.Fatalf("Failed to initialize store: %v", err)
		}
		st = gormStore
	}

	// Rate limiting is only active when Redis is configured
	var rateLimiter *middleware.RateLimiter
	if cfg.RedisEnabled() {
		redisClient, err := database.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		rateLimiter = middleware.NewProcessingRateLimiter(redisClient)
	}

	// Upload archival is optional; nil disables it
	uploader, err := storage.NewUploaderFromEnv(context.Background())
	if err != nil {
		log.Fatalf("Failed to configure upload storage: %v", err)
	}

	llm := service.NewGeminiService()
	processor := service.NewMenuProcessor(
		service.NewParser(llm),
		service.NewKeywordImageResolver(),
		st,
	)
	menuHandler := api.NewMenuHandler(processor, st, uploader)

	// Create and start server
	srv := server.New(cfg, menuHandler, rateLimiter)

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s:%s...", cfg.ServerHost, cfg.ServerPort)
		errChan <- srv.Start()
	}()

	// Channel to listen for an interrupt or terminate signal from the OS
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive a signal or error
	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-quit:
		log.Printf("Received signal: %v", sig)
	}

	// Gracefully shutdown the server
	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
