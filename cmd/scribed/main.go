package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"scribed/internal/api"
	"scribed/internal/config"
	"scribed/internal/daemon"
	"scribed/internal/logging"
	"scribed/internal/poller"
	"scribed/internal/processor"
	"scribed/internal/remap"
	"scribed/internal/services/analysis"
	"scribed/internal/services/transcribe"
	"scribed/internal/session"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := session.Open(cfg)
	if err != nil {
		log.Fatalf("open session store: %v", err)
	}

	transcriber := transcribe.NewClient(transcribe.Config{
		APIKey:         cfg.Transcription.APIKey,
		BaseURL:        cfg.Transcription.BaseURL,
		Language:       cfg.Transcription.Language,
		MaxSpeakers:    cfg.Transcription.MaxSpeakers,
		TimeoutSeconds: cfg.Transcription.TimeoutSeconds,
	})
	analyzer := analysis.NewClient(analysis.Config{
		APIKey:         cfg.Analysis.APIKey,
		BaseURL:        cfg.Analysis.BaseURL,
		Model:          cfg.Analysis.Model,
		MaxTokens:      cfg.Analysis.MaxTokens,
		TimeoutSeconds: cfg.Analysis.TimeoutSeconds,
	})

	proc := processor.New(store, transcriber, analyzer, logger)
	svc := api.NewSessionService(store, proc, remap.New(store, logger))

	var p *poller.Poller
	if cfg.Workflow.PollerEnabled {
		p = poller.New(cfg, store, proc, logger)
	}

	d, err := daemon.New(cfg, store, svc, p, logger)
	if err != nil {
		log.Fatalf("create daemon: %v", err)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		log.Fatalf("start daemon: %v", err)
	}

	<-ctx.Done()
	logger.Info("scribed shutting down")
}
