package processor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"call-auditor-go/internal/events"
	"call-auditor-go/internal/logger"
	"call-auditor-go/internal/storage"
	"call-auditor-go/internal/transcription"
	"call-auditor-go/internal/types"
)

// Options configures where uploads are kept and for how long.
type Options struct {
	UploadDir     string
	RetentionDays int
}

// Processor runs the full audit flow: store upload, transcribe, analyze,
// persist, publish.
type Processor struct {
	transcriber transcription.Transcriber
	analyzer    *Analyzer
	store       storage.Store
	publisher   events.Publisher
	opts        Options
	now         func() time.Time
	log         *logger.Logger
}

func New(t transcription.Transcriber, a *Analyzer, s storage.Store, p events.Publisher, opts Options, log *logger.Logger) *Processor {
	if p == nil {
		p = events.Nop{}
	}
	if opts.UploadDir == "" {
		opts.UploadDir = "./uploads"
	}
	return &Processor{
		transcriber: t,
		analyzer:    a,
		store:       s,
		publisher:   p,
		opts:        opts,
		now:         time.Now,
		log:         log.Component("processor"),
	}
}

// ProcessAudio stores the upload under a generated name and audits it. The
// saved file is removed again if any later step fails.
func (p *Processor) ProcessAudio(ctx context.Context, meta types.CallMetadata, filename, contentType string, audio io.Reader) (types.CallAnalysisRecord, error) {
	ext, err := transcription.ValidateAudio(filename, contentType)
	if err != nil {
		return types.CallAnalysisRecord{}, err
	}

	id := uuid.New().String()
	path, err := p.saveUpload(id+ext, audio)
	if err != nil {
		return types.CallAnalysisRecord{}, err
	}
	log := p.log.WithCall(id).WithField("file", filename)

	rec, err := p.processSaved(ctx, id, meta, filename, path)
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			log.WithField("error", rmErr.Error()).Warn("failed to remove upload after error")
		}
		log.WithField("error", err.Error()).Error("audio processing failed")
		return types.CallAnalysisRecord{}, err
	}
	return rec, nil
}

func (p *Processor) processSaved(ctx context.Context, id string, meta types.CallMetadata, filename, path string) (types.CallAnalysisRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.CallAnalysisRecord{}, fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	tr, err := p.transcriber.Transcribe(ctx, filename, f)
	if err != nil {
		return types.CallAnalysisRecord{}, fmt.Errorf("transcribing %s: %w", filename, err)
	}
	return p.analyzeAndStore(ctx, id, nil, meta, tr, path)
}

// ProcessTranscript audits text that was transcribed elsewhere.
func (p *Processor) ProcessTranscript(ctx context.Context, in types.CallInput) (types.CallAnalysisRecord, error) {
	id := in.CallID
	if id == "" {
		id = uuid.New().String()
	}
	return p.analyzeAndStore(ctx, id, in.CallDate, in.Metadata, types.Transcript{Text: in.Text}, "")
}

func (p *Processor) analyzeAndStore(ctx context.Context, id string, callDate *time.Time, meta types.CallMetadata, tr types.Transcript, audioPath string) (types.CallAnalysisRecord, error) {
	analysis, err := p.analyzer.Analyze(ctx, tr.Text)
	if err != nil {
		return types.CallAnalysisRecord{}, fmt.Errorf("analyzing call %s: %w", id, err)
	}

	rec := types.NewRecord(id, callDate, meta, tr, analysis, p.now())
	if audioPath != "" {
		rec.AudioFilePath = audioPath
		if p.opts.RetentionDays > 0 {
			expires := rec.AuditDate.AddDate(0, 0, p.opts.RetentionDays)
			rec.RecordingExpiresAt = &expires
		}
	}

	if err := p.store.Save(ctx, rec); err != nil {
		return types.CallAnalysisRecord{}, fmt.Errorf("saving call %s: %w", id, err)
	}

	log := p.log.WithCall(id)
	if err := p.publisher.PublishAnalyzed(ctx, rec); err != nil {
		log.WithField("error", err.Error()).Warn("failed to publish analysis event")
	}

	log.WithFields(logrus.Fields{
		"agent":      rec.AgentName,
		"score":      rec.OverallPercentage,
		"sentiment":  rec.CustomerSentiment.OverallSentiment,
		"resolution": rec.ResolutionStatus,
	}).Info("call analyzed")
	return rec, nil
}

func (p *Processor) saveUpload(name string, audio io.Reader) (string, error) {
	if err := os.MkdirAll(p.opts.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload directory: %w", err)
	}
	path := filepath.Join(p.opts.UploadDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}
	if _, err := io.Copy(f, audio); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("writing upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("closing upload file: %w", err)
	}
	return path, nil
}
