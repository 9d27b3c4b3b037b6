package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medrag/knowledge-engine/internal/bootstrap"
	"github.com/medrag/knowledge-engine/internal/config"
	"github.com/medrag/knowledge-engine/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{WithQueue: true, WithGraph: true, Service: "worker"})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close(context.Background())

	go serveMetrics(app, cfg.WorkerMetricsPort)

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeIngestRequests(ctx, func(handlerCtx context.Context, path string) error {
		ingestCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Minute)
		defer cancel()

		result := app.IngestUC.IngestDocument(ingestCtx, path)
		logger.Info("document processed",
			"path", path,
			"document_id", result.DocumentID,
			"chunks", result.ChunksCreated,
			"entities", result.EntitiesExtracted,
			"episodes", result.RelationshipsCreated,
			"errors", len(result.Errors))
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

func serveMetrics(app *bootstrap.App, port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", app.IngestMetrics.Handler())
	if err := http.ListenAndServe(":"+port, mux); err != nil && err != http.ErrServerClosed {
		log.Printf("metrics server error: %v", err)
	}
}
