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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/liamwears/popular/internal/config"
	"github.com/liamwears/popular/internal/database"
	"github.com/liamwears/popular/internal/handlers"
	"github.com/liamwears/popular/internal/listing"
	"github.com/liamwears/popular/internal/middleware"
	"github.com/liamwears/popular/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := log.New(os.Stdout, "[popular] ", log.LstdFlags)
	if !cfg.IsProduction() {
		logger.SetFlags(logger.Flags() | log.Lshortfile)
	}
	logger.Printf("Starting popular movies server in %s mode", cfg.Server.Env)
	if cfg.TMDB.APIKey == "" {
		logger.Println("TMDB_KEY is empty, every fetch will fail with the TMDB error")
	}

	// Initialize screen store
	var screenStore listing.Store
	var redisClient *database.RedisClient
	if cfg.UsesRedis() {
		redisClient, err = database.NewRedisClient(database.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		screenStore = database.NewRedisScreenStore(redisClient, cfg.Screen.TTL)
	} else {
		logger.Println("REDIS_ADDR not set, keeping screens in memory")
		screenStore = database.NewMemoryScreenStore(cfg.Screen.TTL)
	}

	// Initialize services
	tmdbService := services.NewTMDBService(services.TMDBConfig{
		APIKey:  cfg.TMDB.APIKey,
		BaseURL: cfg.TMDB.BaseURL,
		Timeout: cfg.TMDB.Timeout,
	}, logger)

	posters := listing.Config{
		PosterBaseURL:  cfg.TMDB.ImageBaseURL,
		FallbackPoster: cfg.TMDB.FallbackPoster,
	}
	registry := listing.NewRegistry(screenStore, tmdbService, posters, cfg.Screen.TTL, logger)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go registry.Run(sweepCtx, time.Minute)

	// Initialize renderer
	renderer, err := handlers.NewRenderer(posters, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize renderer: %v", err)
	}

	// Initialize handlers
	pageHandler := handlers.NewPageHandler(registry, renderer, logger)
	tmdbHandler := handlers.NewTMDBHandler(tmdbService, logger)
	screenMiddleware := middleware.NewScreenMiddleware(middleware.ScreenIDHeader)

	// Set up HTTP router
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, pageHandler, tmdbHandler, screenMiddleware)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		redisStatus := "disabled"
		if redisClient != nil {
			redisStatus = "up"
			if err := redisClient.Health(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				fmt.Fprintf(w, `{"status":"unhealthy","redis":"down"}`)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","redis":"%s","screens":%d}`, redisStatus, registry.Len())
	})

	// Wrap with logging middleware
	handler := middleware.Logger(logger)(mux)

	// Create HTTP server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.TMDB.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Printf("Server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	stopSweep()
	logger.Println("Server exited")
}
