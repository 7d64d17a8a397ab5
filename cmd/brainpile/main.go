// Package main is the entry point for the Brainpile ingestion-and-retrieval
// engine: one process hosting the chat event handler, the enrichment
// worker loop, and the read API server (spec.md §5).
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/SkyAerope/Brainpile/pkg/album"
	"github.com/SkyAerope/Brainpile/pkg/api/router"
	"github.com/SkyAerope/Brainpile/pkg/config"
	"github.com/SkyAerope/Brainpile/pkg/database"
	"github.com/SkyAerope/Brainpile/pkg/database/repository"
	"github.com/SkyAerope/Brainpile/pkg/feedback"
	"github.com/SkyAerope/Brainpile/pkg/ingest"
	"github.com/SkyAerope/Brainpile/pkg/integrations/clip"
	"github.com/SkyAerope/Brainpile/pkg/integrations/embedding"
	"github.com/SkyAerope/Brainpile/pkg/integrations/s3"
	"github.com/SkyAerope/Brainpile/pkg/integrations/telegram"
	"github.com/SkyAerope/Brainpile/pkg/integrations/vlm"
	"github.com/SkyAerope/Brainpile/pkg/pipeline"
	"github.com/SkyAerope/Brainpile/pkg/queue"
	"github.com/SkyAerope/Brainpile/pkg/registry"
	"github.com/SkyAerope/Brainpile/pkg/retrieval"
	"github.com/SkyAerope/Brainpile/pkg/telemetry"
	"github.com/SkyAerope/Brainpile/pkg/worker"

	_ "github.com/joho/godotenv/autoload"
)

// avatarSweepSchedule and albumSweepSchedule are standard 5-field cron
// expressions (spec.md §E catch-all sweeps).
const (
	avatarSweepSchedule = "*/10 * * * *"
	albumSweepSchedule  = "*/5 * * * *"
)

func main() {
	config.Init()
	cfg := config.Get()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	shutdownTracer, err := telemetry.InitTracer(telemetry.TracerConfig{
		ServiceName:    "brainpile",
		ServiceVersion: "0.1.0",
		Environment:    os.Getenv("APP_ENV"),
		Enabled:        os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "",
	})
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("error shutting down tracer", "error", err)
		}
	}()

	database.Init(cfg.Database.URL)
	db := database.DB()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	objectStore, err := s3.NewClient(ctx, cfg.S3)
	if err != nil {
		log.Fatalf("failed to build object store client: %v", err)
	}

	itemRepo := repository.NewItemRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	entityRepo := repository.NewEntityRepository(db)
	tagRepo := repository.NewTagRepository(db)

	transport := telegram.NewBot(cfg.Telegram.BotToken)
	clipClient := clip.NewClient(cfg.CLIP)
	vlmClient := vlm.NewClient(cfg.VLM)
	embeddingClient := embedding.NewClient(cfg.Embedding)

	q := queue.New(taskRepo)
	pl := pipeline.New(pipeline.Dependencies{
		Transport: transport,
		Store:     objectStore,
		Text:      embeddingClient,
		Visual:    clipClient,
		OCR:       vlmClient,
		Items:     itemRepo,
		Logger:    logger,
	})
	fe := feedback.New(taskRepo, transport)
	reg := registry.New(taskRepo, tagRepo, entityRepo, itemRepo, transport, objectStore)
	coordinator := album.New(taskRepo, transport)
	engine := retrieval.New(itemRepo, tagRepo, embeddingClient, clipClient, clipClient, retrieval.NewHTTPDownloader())

	workerManager := worker.NewManager(logger)
	workerManager.RegisterContinuous(worker.NewEnrichmentWorker(q, pl, fe, logger))
	workerManager.RegisterWorker(worker.NewAvatarSweep(entityRepo, tagRepo, transport, objectStore, logger))
	workerManager.RegisterWorker(worker.NewAlbumSweep(taskRepo, coordinator, logger))
	if err := workerManager.ScheduleWorker("avatar_sweep", avatarSweepSchedule); err != nil {
		log.Fatalf("failed to schedule avatar sweep: %v", err)
	}
	if err := workerManager.ScheduleWorker("album_sweep", albumSweepSchedule); err != nil {
		log.Fatalf("failed to schedule album sweep: %v", err)
	}
	workerManager.Start()

	dispatcher := ingest.New(transport, q, reg, logger)
	go func() {
		if err := dispatcher.Run(ctx); err != nil {
			logger.Error("chat event dispatcher stopped", "error", err)
		}
	}()

	srv := router.New(itemRepo, tagRepo, entityRepo, objectStore, engine, logger)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		workerManager.Stop()
		if err := srv.App.Shutdown(); err != nil {
			logger.Error("error shutting down server", "error", err)
		}
	}()

	address := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("starting read API server", "address", address)
	if err := srv.App.Listen(address); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
