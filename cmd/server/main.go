package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcqscan/mcqscan/internal/api"
	"github.com/mcqscan/mcqscan/internal/config"
	"github.com/mcqscan/mcqscan/internal/pipeline"
	"github.com/mcqscan/mcqscan/internal/stats"
	"github.com/mcqscan/mcqscan/internal/taskq"
	"github.com/mcqscan/mcqscan/internal/vision"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// All model calls share one bounded queue and one stats window.
	queue := taskq.New(cfg.ModelConcurrency)
	llmStats := stats.NewRecorder(time.Hour)

	model, err := vision.NewClient(ctx, vision.Config{
		APIKey:       cfg.GeminiAPIKey,
		ExtractModel: cfg.ExtractModel,
		CaptionModel: cfg.CaptionModel,
		MaxRetries:   cfg.MaxRetries,
		InitialDelay: cfg.InitialBackoff,
	}, queue, llmStats, log)
	if err != nil {
		log.Error("gemini client init failed", "error", err)
		os.Exit(1)
	}
	if cfg.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY is not set; extraction calls will fail until configured")
	}

	orch := pipeline.NewOrchestrator(cfg, model, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, llmStats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		model.Close()
	}()

	log.Info("starting mcqscan", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
