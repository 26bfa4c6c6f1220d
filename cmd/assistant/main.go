// Command assistant is the terminal front end of the dashboard assistant. It
// follows the backend's telemetry, sends questions to its chat endpoint and,
// when audio devices and credentials are available, listens and speaks.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	orchestration "github.com/koscakluka/ema-dashboard/core"
	"github.com/koscakluka/ema-dashboard/core/chat"
	"github.com/koscakluka/ema-dashboard/core/events"
	"github.com/koscakluka/ema-dashboard/core/telemetry"
	"github.com/koscakluka/ema-dashboard/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "assistant: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// The UI owns the terminal, so logs go to a file.
	logFile, err := tea.LogToFile("assistant.log", "assistant")
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, nil)))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telemetryClient := newTelemetryClient(cfg.ServerURL)
	engineEvents := make(chan events.Event, 64)

	opts := []orchestration.EngineOption{
		orchestration.WithChatTransport(chat.NewClient(cfg.ServerURL)),
		orchestration.WithDebugPrompt(cfg.AI.DebugPrompt),
		orchestration.WithEventHandler(func(event events.Event) {
			select {
			case engineEvents <- event:
			case <-ctx.Done():
			}
		}),
		orchestration.WithOpenRefresh(func() {
			go func() {
				if err := telemetryClient.RequestRefresh(ctx); err != nil && ctx.Err() == nil {
					slog.Warn("failed to request telemetry refresh", "error", err)
				}
			}()
		}),
	}
	if cfg.Phrases.SilenceDelay > 0 {
		opts = append(opts, orchestration.WithSilenceDelay(cfg.Phrases.SilenceDelay))
	}
	if len(cfg.Phrases.ExitPhrases) > 0 {
		opts = append(opts, orchestration.WithExitPhrases(cfg.Phrases.ExitPhrases))
	}

	voice, err := newVoiceStack(*cfg)
	switch {
	case errors.Is(err, errVoiceDisabled):
		slog.Info("voice disabled, running text only", "reason", err)
	case err != nil:
		slog.Warn("voice unavailable, running text only", "error", err)
	default:
		defer voice.Close()
		opts = append(opts,
			orchestration.WithRecognitionSession(voice.session),
			orchestration.WithWakeListener(orchestration.NewWakeListener(voice.wakeSession,
				orchestration.WithWakePhrases(cfg.Phrases.WakePhrases))),
		)
		if voice.player != nil {
			opts = append(opts, orchestration.WithSpeechPlayer(voice.player))
		} else {
			slog.Info("xunfei credentials missing, replies will not be spoken")
		}
	}

	engine := orchestration.NewEngine(opts...)
	engine.Start(ctx)
	defer engine.Close()

	program := tea.NewProgram(newModel(engine, engineEvents, voice != nil),
		tea.WithAltScreen(), tea.WithContext(ctx))

	go telemetryClient.Follow(ctx, func(reading telemetry.Reading) {
		engine.UpdateTelemetry(reading.Snapshot, reading.LastUpdate)
		program.Send(readingMsg(reading))
	})

	_, err = program.Run()
	// Unblocks the event handler before the deferred engine.Close.
	stop()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
