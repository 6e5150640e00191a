package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/heme-genetics-advisor/internal/config"
	"github.com/heme-genetics-advisor/internal/domain"
	"github.com/heme-genetics-advisor/internal/llm"
	"github.com/heme-genetics-advisor/internal/logging"
	"github.com/heme-genetics-advisor/internal/mcp"
	"github.com/heme-genetics-advisor/internal/service"
	"github.com/heme-genetics-advisor/internal/setup"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.NewCLI(os.Stdin, os.Stdout).Run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Setup failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

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

	// stdout carries the protocol on the stdio transport
	logCfg := cfg.Logging
	if cfg.MCP.TransportType != mcp.TransportHTTP && (logCfg.Output == "" || logCfg.Output == "stdout") {
		logCfg.Output = "stderr"
	}
	logger, closer, err := logging.New(logCfg)
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer closer.Close()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := llm.NewClient(ctx, cfg.Model, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create model client")
	}

	interpreter := service.NewInterpreterService(logger, client, service.InterpreterOptions{
		Mode:         domain.ReportMode(cfg.Report.Mode),
		WebRetrieval: cfg.Model.WebRetrieval,
		StrictSchema: cfg.Report.StrictSchema,
	})

	// Create MCP server
	mcpServer, err := mcp.NewServer(cfg.MCP, interpreter, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create MCP server")
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down MCP server...")
		cancel()
	}()

	// Start MCP server
	if err := mcpServer.Start(ctx); err != nil {
		logger.WithError(err).Fatal("MCP server failed")
	}

	logger.Info("MCP server stopped")
}
