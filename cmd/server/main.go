package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hanna-health/hanna-backend/internal/api"
	"github.com/hanna-health/hanna-backend/internal/chat"
	"github.com/hanna-health/hanna-backend/internal/config"
	"github.com/hanna-health/hanna-backend/internal/hub"
	"github.com/hanna-health/hanna-backend/internal/prediction"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Best-effort: local development keeps secrets in .env.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("hanna-backend starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"chat_model", cfg.Server.Chat.Model,
		"chat_key_set", cfg.Server.Chat.Key() != "",
		"prediction_configured", cfg.Server.Prediction.BaseURL() != "",
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Alert hub — owns the live subscriber set for the /alerts endpoint.
	alertHub := hub.New()
	go alertHub.Run(ctx)

	// Prediction gateway — best-effort; disabled while the base URL is empty.
	gateway := prediction.New(cfg.Server.Prediction.BaseURL(), cfg.Server.Prediction.Timeout())

	// Chat proxy — canned dev-mode replies until a provider key is configured.
	chatProxy := chat.New(cfg.Server.Chat)

	// Re-apply the runtime-swappable settings when the config file changes.
	go func() {
		err := config.Watch(ctx, *configPath, func(c *config.Config) {
			gateway.SetBaseURL(c.Server.Prediction.BaseURL())
			chatProxy.SetKeyEnv(c.Server.Chat.KeyEnv)
		})
		if err != nil {
			slog.Warn("config: hot reload unavailable", "err", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/", api.New(gateway, alertHub))
	mux.Handle("/chat", chatProxy)
	mux.Handle("/alerts", alertHub)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: mux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// Failing to bind the port is the one fatal startup condition.
			slog.Error("HTTP server stopped", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("hanna-backend shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}
