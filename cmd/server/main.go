package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ordersight/matchday/internal/api"
	"github.com/ordersight/matchday/internal/api/handlers"
	"github.com/ordersight/matchday/internal/cache"
	"github.com/ordersight/matchday/internal/collectors"
	"github.com/ordersight/matchday/internal/config"
	"github.com/ordersight/matchday/internal/database"
	"github.com/ordersight/matchday/internal/logging"
	"github.com/ordersight/matchday/internal/services"
)

const version = "1.0.0"

func main() {
	// Local development secrets live in .env; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	sports := collectors.NewSportsClient(cfg.SportsAPI, cfg.Collector, logger)
	collector := collectors.NewDataCollector(cfg.Collector, sports, logger)

	repo := database.NewAnalysisRepository(db.Pool)
	reportCache := cache.NewRedisReportCache(redisClient.Client, logger, 30*time.Minute)
	notifier := services.NewNotificationService(cfg.Telegram, logger)
	monitor := services.NewResourceMonitor(services.ResourceMonitorConfig{}, logger)

	pipeline := services.NewAnalysisPipeline(cfg.Analysis, logger, collector, monitor, repo, reportCache, notifier)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	health := handlers.NewHealthHandler(db, redisClient, monitor, version)
	analysis := handlers.NewAnalysisHandler(pipeline, repo, reportCache, cfg.Analysis.SignificanceAlpha, logger)
	api.SetupRoutes(router, health, analysis)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
