// cmd/bot/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"intake-bot/internal/bot"
	"intake-bot/internal/common/config"
	"intake-bot/internal/common/database"
	"intake-bot/internal/common/logger"
	"intake-bot/internal/common/observability"
	"intake-bot/internal/poller"
	"intake-bot/internal/session"
	"intake-bot/internal/store"
	"intake-bot/internal/telegram"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting intake bot...",
		zap.String("env", cfg.App.Environment),
		zap.Int("workers", cfg.Telegram.Workers),
	)

	obs := observability.New("intake-bot")
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Init PostgreSQL with retry; degrade to notify-only on failure ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 5, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		// the bot keeps collecting and forwarding submissions without it
		zapLog.Error("postgres unavailable, running degraded", zap.Error(err))
		pg = nil
	} else {
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")
	}

	apps := store.NewApplicationStore(pg, log)
	if apps.Available() {
		if err := apps.InitSchema(ctx); err != nil {
			zapLog.Error("schema init failed", zap.Error(err))
		}
	}

	// --- Init Redis with retry; sessions fall back to memory only ---
	var mirror session.Mirror
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 5, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Error("redis unavailable, sessions will not survive restarts", zap.Error(err))
	} else {
		defer redisClient.Close()
		mirror = session.NewRedisMirror(redisClient)
		zapLog.Info("Redis connected successfully")
	}

	sessions := session.NewStore(mirror, log)

	// --- Telegram wiring ---
	api := telegram.NewClient(cfg.Telegram.APIBaseURL, cfg.Telegram.Token, log)

	// long polling and webhooks are mutually exclusive
	if res := api.DeleteWebhook(ctx, true); !res.OK {
		zapLog.Warn("deleteWebhook failed", zap.String("description", res.Description))
	}
	if res := api.SetMyCommands(ctx, []telegram.BotCommand{
		{Command: "start", Description: "Boshlash"},
		{Command: "menu", Description: "Asosiy menyu"},
		{Command: "admin", Description: "Admin panel"},
	}); !res.OK {
		zapLog.Warn("setMyCommands failed", zap.String("description", res.Description))
	}

	engine := bot.NewEngine(api, sessions, apps, cfg.Telegram.ReviewerChatID, cfg.Admin, log)
	p := poller.New(api, engine, cfg.Telegram.PollTimeout, cfg.Telegram.Workers, obs, log)

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"store":  storeStatus(apps),
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
		zapLog.Info("Health/Metrics server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	zapLog.Info("Polling for updates...")
	if err := p.Run(ctx); err != nil {
		zapLog.Fatal("polling stopped", zap.Error(err))
	}

	zapLog.Info("Intake bot stopped gracefully")
}

func storeStatus(apps *store.ApplicationStore) string {
	if apps.Available() {
		return "connected"
	}
	return "degraded"
}
