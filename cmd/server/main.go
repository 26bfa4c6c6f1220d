// Command server runs the dashboard backend: simulated telemetry, the chat
// proxy and Xunfei TTS URL signing.
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

	"github.com/koscakluka/ema-dashboard/core/chat"
	"github.com/koscakluka/ema-dashboard/core/llms/openai"
	"github.com/koscakluka/ema-dashboard/core/telemetry"
	"github.com/koscakluka/ema-dashboard/core/texttospeech/xfyun"
	"github.com/koscakluka/ema-dashboard/internal/config"
	"github.com/koscakluka/ema-dashboard/internal/httpserver"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.AI.APIKey == "" {
		slog.Warn("AI_API_KEY is not set, chat requests will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	feed := telemetry.NewFeed(telemetry.WithInterval(cfg.TelemetryInterval))
	go feed.Run(ctx)

	provider := openai.NewClient(cfg.AI.APIKey,
		openai.WithBaseURL(cfg.AI.BaseURL),
		openai.WithModel(cfg.AI.Model),
	)
	dashboard := httpserver.New(feed, chat.NewHandler(provider), xfyun.NewSigner(cfg.TTS))

	srv := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           dashboard,
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv.RegisterOnShutdown(func() {
		if err := dashboard.Shutdown(context.Background()); err != nil {
			slog.Warn("failed to shut down telemetry stream", "error", err)
		}
	})

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("dashboard server listening", "address", cfg.HTTPAddress, "model", provider.Model())
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
			_ = srv.Close()
		}
	}
}
