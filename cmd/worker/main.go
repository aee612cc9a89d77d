package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/promptforge/promptforge/internal/config"
	"github.com/promptforge/promptforge/internal/database"
	"github.com/promptforge/promptforge/internal/queue"
	"github.com/promptforge/promptforge/internal/queue/workers"
	"github.com/promptforge/promptforge/internal/secrets"
	"github.com/promptforge/promptforge/internal/vectordb"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	codec, err := secrets.NewCodec(cfg.Secrets.EncryptionSecret)
	if err != nil {
		slog.Error("failed to initialize config codec", "error", err)
		os.Exit(1)
	}

	db, err := database.NewPool(context.Background(), cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	registry := queue.NewHandlersRegistry()

	statsWorker := workers.NewStatsWorker(db)
	probeWorker := workers.NewProbeWorker(vectordb.NewService(db, codec))

	registry.Register(queue.TypePromptStats, asynq.HandlerFunc(statsWorker.ProcessTask))
	registry.Register(queue.TypeVectorDBProbe, asynq.HandlerFunc(probeWorker.ProcessTask))

	slog.Info("starting worker", "concurrency", 10)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
