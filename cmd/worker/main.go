package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/docclass/internal/bootstrap"
	"github.com/kirillkom/docclass/internal/config"
	"github.com/kirillkom/docclass/internal/core/domain"
	"github.com/kirillkom/docclass/internal/observability/logging"
	"github.com/kirillkom/docclass/internal/observability/metrics"
)

const serviceName = "docclass-worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg, logger, workerMetrics.Registerer(), serviceName)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}

	queue, err := bootstrap.NewQueue(cfg, logger)
	if err != nil {
		logger.Error("queue_init_failed", "error", err)
		os.Exit(1)
	}
	defer queue.Close()

	mux := http.NewServeMux()
	mux.Handle("/metrics", workerMetrics.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed",
		"subject", cfg.NATSClassifySubject,
		"queue_group", cfg.NATSQueueGroup,
		"model_source", app.Model.Source,
	)
	err = queue.SubscribeClassify(ctx, func(handlerCtx context.Context, req domain.ClassifyRequest) domain.ClassifiedEvent {
		workerMetrics.StartMessage()
		started := time.Now()
		event, err := app.ProcessUC.Process(handlerCtx, req)
		workerMetrics.FinishMessage(serviceName, time.Since(started), err)
		if err != nil {
			logger.Warn("classify_request_failed",
				"request_id", event.RequestID,
				"filename", req.Filename,
				"error_kind", event.ErrorKind,
				"error", err,
			)
		}
		return event
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
