// Package main is the entry point for the personal finance Telegram bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gitlab.com/yelinaung/finance-bot/internal/activitylog"
	"gitlab.com/yelinaung/finance-bot/internal/backend"
	"gitlab.com/yelinaung/finance-bot/internal/bot"
	"gitlab.com/yelinaung/finance-bot/internal/config"
	"gitlab.com/yelinaung/finance-bot/internal/database"
	"gitlab.com/yelinaung/finance-bot/internal/lifexp"
	"gitlab.com/yelinaung/finance-bot/internal/localstate"
	"gitlab.com/yelinaung/finance-bot/internal/logger"
	"gitlab.com/yelinaung/finance-bot/internal/plans"
	"gitlab.com/yelinaung/finance-bot/internal/repository"
	"gitlab.com/yelinaung/finance-bot/internal/storage"
	"gitlab.com/yelinaung/finance-bot/internal/telemetry"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("finance-bot %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	if strings.EqualFold(cfg.LogFormat, "json") {
		logger.SetJSON()
	}
	logger.SetLevel(cfg.LogLevel)
	if err := logger.InitHashSalt(); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to configure log hashing")
	}

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry, version)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to set up telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to flush telemetry")
		}
	}()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Log.Info().Msg("Database initialized successfully")

	store := storage.NewPostgres(pool)
	client := backend.NewClient(cfg.BackendURL, cfg.BackendToken, cfg.BackendTimeout)
	loc := cfg.Location()

	bucketLog := activitylog.New(activitylog.LifeXP, store, activitylog.WithLocation(loc))
	planLog := activitylog.New(activitylog.Plans, store, activitylog.WithLocation(loc))

	telegramBot, err := bot.New(cfg, bot.Deps{
		Users: repository.NewUserRepository(pool),
		LifeXP: lifexp.NewService(client, bucketLog,
			lifexp.WithDueSoonDays(cfg.BucketDueSoonDays),
			lifexp.WithLocation(loc)),
		Plans: plans.NewService(client, planLog, localstate.NewExpiredAcks(store),
			plans.WithDueSoonDays(cfg.PlanDueSoonDays),
			plans.WithLocation(loc)),
		Accounts: client,
		Notes:    localstate.NewNotes(store),
	})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create bot")
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Log.Info().Msg("Shutting down...")
		cancel()
	}()

	if err := telegramBot.Start(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("Bot stopped with error")
	}
}
