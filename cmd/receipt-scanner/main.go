package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"receipt-scanner/internal/api"
	"receipt-scanner/internal/api/handlers"
	"receipt-scanner/internal/repository"
	"receipt-scanner/internal/service"
	"receipt-scanner/pkg/config"
	"receipt-scanner/pkg/logger"
	"receipt-scanner/pkg/postgres"
	"receipt-scanner/pkg/security"

	"go.uber.org/zap"
)

// @title Receipt Scanner API
// @version 1.0.0
// @description Scans photographed receipts with a vision model and stores the results in Notion

// @host localhost:8000
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the shared token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting Receipt Scanner service")

	ctx := context.Background()

	// Optional Postgres sink for audit events
	var auditStore security.EventStore
	if cfg.AuditDB.Enabled() {
		pool, err := postgres.NewAuditPool(ctx, &cfg.AuditDB, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to connect to audit database", zap.Error(err))
		}
		defer pool.Close()
		auditStore = repository.NewAuditRepository(pool, appLogger)
	}
	auditor := security.NewAuditor(appLogger, auditStore)

	// Initialize services
	extractionService, err := service.NewExtractionService(&cfg.OpenAI, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize extraction service", zap.Error(err))
	}

	notionService := service.NewNotionService(&cfg.Notion, appLogger)
	if err := notionService.EnsureTransactionsDatabase(ctx); err != nil {
		appLogger.Warn("Transactions database not resolved, publishing will fail until configured", zap.Error(err))
	}

	scanService := service.NewScanService(extractionService, notionService, appLogger)

	// Initialize handlers
	scanHandler := handlers.NewScanHandler(scanService, auditor, cfg.Security.MaxFileSizeMB, appLogger)
	infoHandler := handlers.NewInfoHandler()

	// Setup router
	app := api.SetupRouter(cfg, scanHandler, infoHandler, auditor, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
