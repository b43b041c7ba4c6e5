package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirillkom/safety-qa/internal/bootstrap"
	"github.com/kirillkom/safety-qa/internal/config"
	"github.com/kirillkom/safety-qa/internal/observability/logging"
	"github.com/kirillkom/safety-qa/internal/observability/metrics"
)

const service = "worker"

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.NewJSONLogger(service, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(service)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsHandler(workerMetrics),
	}
	go func() {
		logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDocumentUploaded(ctx, func(handlerCtx context.Context, documentID string) error {
		workerMetrics.StartDocument()
		start := time.Now()

		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()
		processErr := app.ExtractUC.ProcessByID(processCtx, documentID)

		workerMetrics.FinishDocument(service, time.Since(start), processErr)
		return processErr
	})
	if err != nil {
		logger.Error("worker subscribe failed", "error", err)
		os.Exit(1)
	}
}

func metricsHandler(m *metrics.WorkerMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}
