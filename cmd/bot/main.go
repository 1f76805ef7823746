package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"autofilterbot/internal/app"
	"autofilterbot/internal/broadcast"
	"autofilterbot/internal/config"
	"autofilterbot/internal/store"
	"autofilterbot/internal/transport"
	"autofilterbot/internal/util"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	dataStore, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}

	tg, err := transport.NewTelegram(cfg.BotToken)
	if err != nil {
		log.Fatalf("failed to connect transport: %v", err)
	}
	defer tg.Stop()

	var checkpoints *broadcast.CheckpointStore
	if cfg.RedisAddr != "" {
		checkpoints = broadcast.NewCheckpointStore(cfg.RedisAddr, cfg.RedisPassword, "", 0)
	}

	appCore, err := app.New(app.Config{
		OwnerID:           cfg.OwnerID,
		RequiredChannelID: cfg.RequiredChannelID,
		SourceChannelIDs:  cfg.SourceChannelIDs,
		BrandingTag:       cfg.BrandingTag,
		BroadcastPace:     time.Duration(cfg.BroadcastPaceMs) * time.Millisecond,
		WorkerLimit:       cfg.WorkerLimit,
		Store:             dataStore,
		Transport:         tg,
		Checkpoints:       checkpoints,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("bot started", "bot_id", tg.SelfID(), "owner_id", cfg.OwnerID)
	if err := appCore.Run(ctx); err != nil {
		logger.Error("event loop error", "err", err)
	}
	slog.Info("bot stopped")
}
