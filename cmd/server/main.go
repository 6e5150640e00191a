package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/heme-genetics-advisor/internal/api"
	"github.com/heme-genetics-advisor/internal/config"
	"github.com/heme-genetics-advisor/internal/domain"
	"github.com/heme-genetics-advisor/internal/llm"
	"github.com/heme-genetics-advisor/internal/logging"
	"github.com/heme-genetics-advisor/internal/metrics"
	"github.com/heme-genetics-advisor/internal/service"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer closer.Close()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	client, err := llm.NewClient(ctx, cfg.Model, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create model client")
	}

	interpreter := service.NewInterpreterService(logger, client, service.InterpreterOptions{
		Mode:         domain.ReportMode(cfg.Report.Mode),
		WebRetrieval: cfg.Model.WebRetrieval,
		StrictSchema: cfg.Report.StrictSchema,
		Metrics:      m,
	})
	session := service.NewSession(logger, interpreter)

	server := api.NewServer(configManager, logger, interpreter, session, m)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"provider":    client.Provider(),
		"report_mode": interpreter.Mode(),
	}).Info("Starting hematologic genetics advisor")

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}
