package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	mcpadapter "github.com/kirillkom/safety-qa/internal/adapters/mcp"
	"github.com/kirillkom/safety-qa/internal/bootstrap"
	"github.com/kirillkom/safety-qa/internal/config"
	"github.com/kirillkom/safety-qa/internal/observability/logging"
)

const service = "mcp"

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	// stdout carries the MCP protocol, keep logs off it
	logger := logging.NewJSONLoggerTo(os.Stderr, service, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := mcpadapter.NewServer(app.AskUC, app.IndexUC, logger)
	logger.Info("mcp server on stdio")
	if err := srv.ServeStdio(); err != nil {
		logger.Error("mcp server failed", "error", err)
		os.Exit(1)
	}
}
