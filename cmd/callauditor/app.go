package main

import (
	"context"
	"fmt"
	"io"

	"call-auditor-go/internal/config"
	"call-auditor-go/internal/events"
	"call-auditor-go/internal/llm"
	"call-auditor-go/internal/logger"
	"call-auditor-go/internal/processor"
	"call-auditor-go/internal/storage"
	"call-auditor-go/internal/transcription"
	"call-auditor-go/internal/types"
)

// app holds the collaborators built once at startup and shared by commands.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	store     storage.Store
	provider  llm.Provider
	publisher events.Publisher
	analyzer  *processor.Analyzer
	processor *processor.Processor
}

// newApp opens storage and, when withAnalysis is set, the analysis providers.
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger, withAnalysis bool) (*app, error) {
	store, err := storage.Open(ctx, cfg.Storage.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	a := &app{cfg: cfg, log: log, store: store}
	if !withAnalysis {
		return a, nil
	}

	a.provider, err = llm.New(ctx, cfg.LLM)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating llm provider: %w", err)
	}
	tr, err := transcription.New(cfg.Transcription, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating transcriber: %w", err)
	}
	a.publisher = events.New(cfg.Kafka, log)
	a.analyzer = processor.NewAnalyzer(a.provider, types.Questionnaire(), cfg.LLM.Timeout, log)
	a.processor = processor.New(tr, a.analyzer, store, a.publisher, processor.Options{
		UploadDir:     cfg.Storage.UploadDir,
		RetentionDays: cfg.Storage.RetentionDays,
	}, log)

	log.WithField("provider", a.provider.Name()).
		WithField("mock_transcription", cfg.Transcription.Mock).
		WithField("kafka", len(cfg.Kafka.Brokers) > 0).
		Info("analysis pipeline ready")
	return a, nil
}

func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.WithError(err).Warn("closing publisher")
		}
	}
	if c, ok := a.provider.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.log.WithError(err).Warn("closing llm provider")
		}
	}
	if err := a.store.Close(); err != nil {
		a.log.WithError(err).Warn("closing storage")
	}
}
