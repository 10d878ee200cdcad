package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/sunzhengang/github-topics-trending/docs"
	"github.com/sunzhengang/github-topics-trending/internal/config"
	"github.com/sunzhengang/github-topics-trending/internal/github"
	"github.com/sunzhengang/github-topics-trending/internal/handler"
	md "github.com/sunzhengang/github-topics-trending/internal/middleware"
	"github.com/sunzhengang/github-topics-trending/internal/queue"
	"github.com/sunzhengang/github-topics-trending/internal/service"
	"github.com/sunzhengang/github-topics-trending/internal/worker"
	"github.com/sunzhengang/github-topics-trending/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title GitHub Topics Trending Service
// @version 1.0.0
// @description Ranked repositories of a GitHub topic, fetched from the search API.
// @host localhost:8081
// @BasePath /v1
func main() {
	if os.Getenv("DEBUG") == "true" {
		logger.SetLevel(logger.LevelDebug)
	}

	// * Load configuration
	cfg, err := config.LoadConfiguration()
	if err != nil {
		logger.Error("‼️ Failed to load config: %v", err)
		os.Exit(1)
	}

	// * Initialize GitHub fetcher
	fetcher, err := github.NewFetcher(cfg)
	if err != nil {
		logger.Error("Failed to initialize GitHub fetcher: %v", err)
		os.Exit(1)
	}

	// * Connect to RabbitMQ when configured
	var repoService *service.RepositoryService
	var rabbitMQ *queue.RabbitMQ
	if cfg.RabbitMQURL != "" {
		rabbitMQ, err = queue.NewRabbitMQ(cfg.RabbitMQURL, cfg.RabbitMQQueue)
		if err != nil {
			logger.Error("Failed to initialize RabbitMQ: %v", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		repoService = service.NewRepositoryService(fetcher, rabbitMQ)
	} else {
		logger.Info("RABBITMQ_URL is not set, collection is disabled")
		repoService = service.NewRepositoryService(fetcher, nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// * Create and start worker
	if cfg.CollectInterval > 0 && rabbitMQ != nil {
		w := worker.NewCollectWorker(repoService, cfg.CollectInterval, github.SortKey(cfg.SearchSort), cfg.CollectLimit)
		go w.Run(ctx)
	}

	// * Create API server
	apiHandler := handler.NewRepositoryHandler(repoService)
	router := mux.NewRouter()
	router.Use(md.LoggingMiddleware)
	api := router.PathPrefix("/v1").Subrouter()

	apiHandler.RegisterRoutes(api)
	router.PathPrefix("/v1/swagger/").Handler(httpSwagger.WrapHandler)

	server := &http.Server{
		Addr:    cfg.ServerPort,
		Handler: router,
	}

	go func() {
		logger.Info("Starting API server on %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("API server error: %v", err)
			os.Exit(1)
		}
	}()

	// * Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}
