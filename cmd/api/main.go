package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"mycally/internal/account"
	"mycally/internal/auth"
	"mycally/internal/blob"
	"mycally/internal/calendar"
	"mycally/internal/canvas"
	"mycally/internal/chat"
	"mycally/internal/config"
	"mycally/internal/dates"
	"mycally/internal/gemini"
	"mycally/internal/httpapi"
	"mycally/internal/jobs"
	"mycally/internal/library"
	"mycally/internal/logger"
	"mycally/internal/observability"
	"mycally/internal/priority"
	"mycally/internal/queue"
	"mycally/internal/store"
	"mycally/internal/studygen"
	"mycally/internal/syllabus"
)

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

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, lg); err != nil {
		lg.Fatal("http server failed", "error", err)
	}
}

func runHTTP(cfg config.App, lg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitOTel(ctx, lg, observability.OtelConfig{
		Enabled:     cfg.OtelEnabled,
		ServiceName: "mycally-api",
		Environment: cfg.Env,
		Version:     cfg.Version,
		Endpoint:    cfg.OtelEndpoint,
		Insecure:    cfg.OtelInsecure,
		SampleRatio: cfg.OtelSampleRatio,
	})
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if db == nil {
		return fmt.Errorf("open db: %w", err)
	}
	if err != nil {
		lg.Warn("db not reachable", "error", err)
	} else if err := db.Migrate(ctx); err != nil {
		lg.Warn("db migration failed", "error", err)
	}
	defer func() { _ = db.Close() }()

	rdb := store.NewRedis(cfg.RedisAddr)
	defer func() { _ = rdb.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	loc := cfg.Location()
	norm := dates.New(loc)

	model := gemini.New(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTimeout)
	model.HTTP.Transport = metrics.Transport("gemini", nil)
	if !model.Available() {
		lg.Warn("GOOGLE_GENERATIVE_AI_API_KEY not set, model features run in fallback mode")
	}

	deps := httpapi.Deps{
		Log:             lg,
		Signer:          auth.NewSigner(cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL),
		Prioritizer:     priority.NewClassifier(model, lg, metrics),
		Materializer:    calendar.NewMaterializer(loc),
		Extractor:       syllabus.NewExtractor(model, norm, lg),
		Generator:       studygen.NewGenerator(model, lg),
		Metrics:         metrics,
		RateLimitPerMin: cfg.RateLimitPerMin,
		MaxUploadBytes:  cfg.MaxUploadBytes,
		CORSOrigins:     cfg.CORSOrigins,
		Health: map[string]httpapi.HealthCheck{
			"db":    db.Healthy,
			"redis": rdb.Healthy,
		},
	}
	if cfg.OtelEnabled {
		deps.TracingService = "mycally-api"
	}

	if cfg.CanvasAccessToken != "" {
		cv := canvas.New(cfg.CanvasBaseURL, cfg.CanvasAccessToken)
		cv.HTTP.Transport = metrics.Transport("canvas", nil)
		deps.Canvas = cv
		deps.Assignments = canvas.NewAggregator(cv, lg)
	} else {
		lg.Warn("CANVAS_ACCESS_TOKEN not set, canvas routes will report it")
	}

	if cfg.SyllabusStore == "memory" {
		deps.Slots = syllabus.NewMemorySlots()
	} else {
		deps.Slots = syllabus.NewRedisSlots(rdb.Client, "mycally:syllabus:")
	}

	var inProcess *queue.InMemory
	if cfg.QueueBackend == "memory" {
		inProcess = queue.NewInMemory(64)
		deps.Queue = inProcess
	} else {
		deps.Queue = queue.NewRedisQueue(rdb.Client, cfg.QueueKey)
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
		lg.Warn("blob store unavailable, library routes disabled", "backend", cfg.BlobBackend, "error", err)
	} else {
		lib := library.NewService(library.NewRepository(db.Client), blobs, lg, cfg.MaxUploadBytes)
		deps.Library = lib
		if inProcess != nil {
			proc := jobs.NewProcessor(lib, studygen.NewGenerator(model, lg), lg, metrics)
			go func() { _ = proc.Run(ctx, inProcess) }()
		}
	}

	deps.Accounts = account.NewService(account.NewRepository(db.Client), deps.Signer, lg)
	deps.Chats = chat.NewService(chat.NewRepository(db.Client), model, lg, loc)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      httpapi.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.GeminiTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("starting server", "port", cfg.HTTPPort, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	lg.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Warn("server forced shutdown", "error", err)
	}
	lg.Info("server exited")
	return nil
}
