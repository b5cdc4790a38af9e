package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	internalMiddleware "github.com/mquery-dev/api/internal/middleware"
	"github.com/mquery-dev/api/internal/server"
	"github.com/mquery-dev/api/pkg/archlist"
	"github.com/mquery-dev/api/pkg/config"
	"github.com/mquery-dev/api/pkg/inspector"
	"github.com/mquery-dev/api/pkg/logging"
	pkgServer "github.com/mquery-dev/api/pkg/server"
	"github.com/mquery-dev/api/pkg/store"
)

// Set via -ldflags at build time
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Parse flags
	var configPath string
	var kubeconfig string
	var inCluster bool

	flag.StringVar(&configPath, "config-path", "", "Path to configuration file (defaults apply when empty)")
	flag.StringVar(&kubeconfig, "kubeconfig", "", "Path to kubeconfig file for the configmap store (optional for out-of-cluster)")
	flag.BoolVar(&inCluster, "in-cluster", false, "Use in-cluster Kubernetes configuration for the configmap store")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if kubeconfig != "" {
		cfg.Store.Kubeconfig = kubeconfig
	}
	if inCluster {
		cfg.Store.InCluster = true
	}

	// Initialize structured logging
	if err := logging.InitLogger(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Logger.Sync()
	logging.Logger.Info("Structured logging initialized",
		zap.String("level", cfg.Logging.Level),
		zap.String("format", cfg.Logging.Format),
		zap.String("config", configPath))

	ctx := context.Background()

	docStore, err := store.New(ctx, cfg.Store)
	if err != nil {
		logging.Logger.Fatal("Failed to initialize document store",
			zap.String("backend", cfg.Store.Backend),
			zap.Error(err))
	}
	defer func() {
		if err := store.Close(docStore); err != nil {
			logging.Logger.Error("Failed to close document store", zap.Error(err))
		}
	}()

	manifestInspector, err := inspector.New(ctx, cfg.Inspector)
	if err != nil {
		logging.Logger.Fatal("Failed to initialize manifest inspector",
			zap.String("backend", cfg.Inspector.Backend),
			zap.Error(err))
	}

	// Get or create API instance ID (stored alongside the cached documents)
	instanceID, err := pkgServer.GetOrCreateInstanceID(ctx, docStore)
	if err != nil {
		logging.Logger.Fatal("Failed to get or create instance ID", zap.Error(err))
	}
	logging.Logger.Info("API instance ID initialized", zap.String("id", instanceID))

	service := archlist.NewStoreService(docStore, manifestInspector, cfg.Cache.TTL)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Add validator
	e.Validator = server.NewValidator()

	// Add global middleware (including API ID header)
	e.Use(internalMiddleware.LoggerMiddleware())
	e.Use(internalMiddleware.RecoverMiddleware())
	e.Use(internalMiddleware.CORSMiddleware())
	e.Use(internalMiddleware.TimeoutMiddleware(cfg.Server.RequestTimeout))
	e.Use(internalMiddleware.APIIDMiddleware(instanceID))

	srv := server.New(e, service, instanceID, cfg.Server.Port, &server.VersionInfo{
		Version:   version,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	})
	logging.Logger.Info("Server initialized")

	go func() {
		if err := srv.Start(); err != nil {
			logging.Logger.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logging.Logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Error("Server shutdown failed", zap.Error(err))
	}
}
