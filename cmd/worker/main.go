package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mycally/internal/blob"
	"mycally/internal/config"
	"mycally/internal/gemini"
	"mycally/internal/jobs"
	"mycally/internal/library"
	"mycally/internal/logger"
	"mycally/internal/observability"
	"mycally/internal/queue"
	"mycally/internal/store"
	"mycally/internal/studygen"
)

// Worker consumes generate jobs and stores the validated summaries and quizzes.
func main() {
	cfg, warnings := config.Load()
	lg, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer lg.Sync()
	for _, w := range warnings {
		lg.Warn("config", "warning", w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.QueueBackend == "memory" {
		lg.Fatal("worker needs a shared queue; QUEUE_BACKEND=memory runs jobs inside the api process")
	}

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		lg.Fatal("db connect failed", "error", err)
	}
	defer db.Close()

	rdb := store.NewRedis(cfg.RedisAddr)
	defer rdb.Close()
	if !rdb.Healthy(ctx) {
		lg.Warn("redis not reachable yet, consumer will keep retrying", "addr", cfg.RedisAddr)
	}

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	model := gemini.New(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTimeout)
	model.HTTP.Transport = metrics.Transport("gemini", nil)
	if !model.Available() {
		lg.Warn("GOOGLE_GENERATIVE_AI_API_KEY not set, every job will fail")
	}

	blobs, err := blob.Open(ctx, blob.Options{
		Backend:             cfg.BlobBackend,
		CloudinaryCloudName: cfg.CloudinaryCloudName,
		CloudinaryAPIKey:    cfg.CloudinaryAPIKey,
		CloudinaryAPISecret: cfg.CloudinaryAPISecret,
		CloudinaryFolder:    cfg.CloudinaryFolder,
		B2AccountID:         cfg.B2AccountID,
		B2ApplicationKey:    cfg.B2ApplicationKey,
		B2Bucket:            cfg.B2Bucket,
	})
	if err != nil {
		lg.Fatal("blob store init failed", "backend", cfg.BlobBackend, "error", err)
	}

	docs := library.NewService(library.NewRepository(db.Client), blobs, lg, cfg.MaxUploadBytes)
	proc := jobs.NewProcessor(docs, studygen.NewGenerator(model, lg), lg, metrics)

	metricsSrv := &http.Server{
		Addr:              ":" + cfg.WorkerPort,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Warn("metrics server failed", "error", err)
		}
	}()

	if err := proc.Run(ctx, queue.NewRedisQueue(rdb.Client, cfg.QueueKey)); err != nil {
		lg.Error("worker stopped with error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
}
