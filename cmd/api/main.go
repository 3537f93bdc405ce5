package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/wishpage/internal/api"
	"github.com/timmy/wishpage/internal/api/middleware"
	"github.com/timmy/wishpage/internal/app"
	"github.com/timmy/wishpage/internal/config"
	"github.com/timmy/wishpage/internal/logger"
)

func main() {
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Support CONFIG_PATH environment variable for production deployments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		appLogger.WithError(err).Fatal("Invalid config")
	}

	ctx := context.Background()
	a, err := app.Build(ctx, cfg)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize")
	}
	defer a.Close()

	router := api.SetupRouter(a.Services, api.RouterConfig{
		Mode: cfg.Server.Mode,
		CORS: middleware.CORSConfig{
			AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
			AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
		},
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port":            cfg.Server.Port,
			"mode":            cfg.Server.Mode,
			"public_base_url": cfg.Server.PublicBaseURL,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Song generation can take minutes; give in-flight requests a fair chance to land.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
