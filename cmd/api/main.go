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

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/chrono/internal/app"
	"github.com/xpanvictor/chrono/internal/config"
	"github.com/xpanvictor/chrono/internal/database"
	"github.com/xpanvictor/chrono/internal/server"
	"github.com/xpanvictor/chrono/pkg/Logger"
)

// This is the main entry point for the scheduler service.
// Loads in all system components, starts the engine loop and
// exposes the management API.
func main() {
	// fetch cfg
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	// load global logger
	logger := Logger.New(cfg.Debug)
	logger.Info("Logger initialized")
	// fetch database connection
	db, err := database.InitDB(*cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// handle migrations
	if err := database.MigrateDB(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	// redis for in-app/push notification fan-out
	rc, err := database.NewRedis(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}

	application, err := app.NewApp(cfg, logger, db, rc)
	if err != nil {
		log.Fatalf("Failed to wire application: %v", err)
	}

	// engine loop runs until shutdown
	engineCtx, stopEngine := context.WithCancel(context.Background())
	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		if err := application.Poller.Run(engineCtx); err != nil {
			logger.Errorf("engine stopped with error: %v", err)
		}
	}()

	// compose router
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	server.InitializeRoutes(cfg, router, application.GetServerDependencies())

	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router.Handler(),
	}
	go func() {
		logger.Infof("listening on :%d", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server exiting %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	// stop the engine first so no new executions start, then the server
	stopEngine()
	<-engineDone

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Shutdown err %v", err)
	}
	logger.Info("Shutdown system")
}
