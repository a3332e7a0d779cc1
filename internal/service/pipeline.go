// Package service contains the voice-message processing pipeline and its
// supporting services.
package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/voicerelay/voicerelay/internal/core"
	"github.com/voicerelay/voicerelay/internal/domain/model"
	"github.com/voicerelay/voicerelay/internal/observability/metrics"
	"github.com/voicerelay/voicerelay/internal/observability/statsd"
)

// Generation purposes used when wrapping generator errors.
const (
	purposeSummary  = "summary"
	purposeKeywords = "keywords"
)

// PipelineOptions configures the processing pipeline.
type PipelineOptions struct {
	Logger      *slog.Logger
	Fetcher     core.AudioFetcher
	Transcriber core.Transcriber
	Generator   core.Generator

	// Deliverer is optional; without one, processed artifacts are only
	// stored on the result backend (and in history when configured).
	Deliverer core.Deliverer

	// History is optional. Failures to record are logged, never escalated.
	History core.HistoryRepository

	// Metrics is optional.
	Metrics statsd.Sink

	// SummaryInstruction and KeywordInstruction are the fixed system
	// instructions for the two generation calls every job runs.
	SummaryInstruction string
	KeywordInstruction string
}

// Pipeline executes the full processing sequence for one voice message:
// fetch the recording, transcribe it, generate the summary and keyword
// artifacts, deliver downstream and record the outcome.
type Pipeline struct {
	logger      *slog.Logger
	fetcher     core.AudioFetcher
	transcriber core.Transcriber
	generator   core.Generator
	deliverer   core.Deliverer
	history     core.HistoryRepository
	metrics     statsd.Sink

	summaryInstruction string
	keywordInstruction string
}

// NewPipeline validates options and constructs a Pipeline.
func NewPipeline(opts PipelineOptions) (*Pipeline, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("pipeline requires an audio fetcher")
	}
	if opts.Transcriber == nil {
		return nil, errors.New("pipeline requires a transcriber")
	}
	if opts.Generator == nil {
		return nil, errors.New("pipeline requires a generator")
	}
	if opts.SummaryInstruction == "" || opts.KeywordInstruction == "" {
		return nil, errors.New("pipeline requires summary and keyword instructions")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "pipeline")
	}

	return &Pipeline{
		logger:             logger,
		fetcher:            opts.Fetcher,
		transcriber:        opts.Transcriber,
		generator:          opts.Generator,
		deliverer:          opts.Deliverer,
		history:            opts.History,
		metrics:            opts.Metrics,
		summaryInstruction: opts.SummaryInstruction,
		keywordInstruction: opts.KeywordInstruction,
	}, nil
}

// Process runs one voice message through the full pipeline and returns the
// generated summary. The first failing stage short-circuits the rest, except
// delivery: a delivery failure is logged and recorded but does not fail the
// job, since the transcript and artifacts already exist.
func (p *Pipeline) Process(ctx context.Context, job model.VoiceMessageJob) (string, error) {
	if err := job.Validate(); err != nil {
		return "", err
	}

	audioPath, err := p.fetchStage(ctx, job)
	if err != nil {
		p.recordOutcome(ctx, job, outcome{err: err})
		return "", err
	}
	defer p.removeAudio(ctx, audioPath)

	transcript, err := p.transcribeStage(ctx, audioPath)
	if err != nil {
		p.recordOutcome(ctx, job, outcome{err: err})
		return "", err
	}

	artifacts, err := p.generateStage(ctx, transcript)
	if err != nil {
		p.recordOutcome(ctx, job, outcome{transcript: transcript, err: err})
		return "", err
	}

	p.deliverStage(ctx, job, transcript, artifacts)

	p.recordOutcome(ctx, job, outcome{transcript: transcript, artifacts: artifacts})

	p.logger.InfoContext(ctx, "voice message processed",
		"recording_id", job.RecordingSID,
		"origin", job.Origin,
	)
	return artifacts.Summary, nil
}

func (p *Pipeline) fetchStage(ctx context.Context, job model.VoiceMessageJob) (string, error) {
	start := time.Now()
	audioPath, err := p.fetcher.Fetch(ctx, job.RecordingURL)
	metrics.EmitStage(p.metrics, metrics.StageFetch, time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("fetch recording: %w", err)
	}
	return audioPath, nil
}

func (p *Pipeline) transcribeStage(ctx context.Context, audioPath string) (string, error) {
	start := time.Now()
	transcript, err := p.transcriber.Transcribe(ctx, audioPath)
	metrics.EmitStage(p.metrics, metrics.StageTranscribe, time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("transcribe recording: %w", err)
	}
	return transcript, nil
}

// generateStage runs both generation calls. The keyword call only happens
// once the summary call has succeeded; a partial pair is never delivered.
func (p *Pipeline) generateStage(ctx context.Context, transcript string) (model.GeneratedArtifacts, error) {
	start := time.Now()

	summary, err := p.generator.Generate(ctx, p.summaryInstruction, transcript)
	if err != nil {
		wrapped := &model.GenerationError{Purpose: purposeSummary, Err: err}
		metrics.EmitStage(p.metrics, metrics.StageGenerate, time.Since(start), wrapped)
		return model.GeneratedArtifacts{}, wrapped
	}

	keywords, err := p.generator.Generate(ctx, p.keywordInstruction, transcript)
	if err != nil {
		wrapped := &model.GenerationError{Purpose: purposeKeywords, Err: err}
		metrics.EmitStage(p.metrics, metrics.StageGenerate, time.Since(start), wrapped)
		return model.GeneratedArtifacts{}, wrapped
	}

	metrics.EmitStage(p.metrics, metrics.StageGenerate, time.Since(start), nil)
	return model.GeneratedArtifacts{Summary: summary, Keywords: keywords}, nil
}

func (p *Pipeline) deliverStage(ctx context.Context, job model.VoiceMessageJob, transcript string, artifacts model.GeneratedArtifacts) {
	if p.deliverer == nil {
		return
	}
	if job.RecordingSID == "" {
		// id_conv carries the recording identifier; without one the
		// downstream consumer cannot correlate the payload, so delivery is
		// skipped. The artifacts stay on the result backend and in history.
		p.logger.WarnContext(ctx, "skipping delivery: no recording identifier",
			"origin", job.Origin,
		)
		return
	}

	payload := model.DeliveryPayload{
		IDConv:        job.RecordingSID,
		RecordingURL:  job.RecordingURL,
		Transcription: transcript,
		Resume:        artifacts.Summary,
		Tags:          artifacts.Keywords,
	}

	start := time.Now()
	err := p.deliverer.Deliver(ctx, payload)
	metrics.EmitStage(p.metrics, metrics.StageDeliver, time.Since(start), err)
	if err != nil {
		// Delivery is not retried: artifacts already exist and the job
		// result stays available on the result backend.
		p.logger.ErrorContext(ctx, "downstream delivery failed",
			"recording_id", job.RecordingSID,
			"origin", job.Origin,
			"error", err,
		)
	}
}

func (p *Pipeline) removeAudio(ctx context.Context, audioPath string) {
	if audioPath == "" {
		return
	}
	if err := os.Remove(audioPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		p.logger.WarnContext(ctx, "temp audio cleanup failed", "path", audioPath, "error", err)
	}
}

type outcome struct {
	transcript string
	artifacts  model.GeneratedArtifacts
	err        error
}

// recordOutcome writes the terminal job state to the history store when one
// is configured. History is best-effort.
func (p *Pipeline) recordOutcome(ctx context.Context, job model.VoiceMessageJob, out outcome) {
	if p.history == nil {
		return
	}

	rec := core.ProcessedMessageRecord{
		RecordingSID: job.RecordingSID,
		RecordingURL: job.RecordingURL,
		Origin:       job.Origin,
		Transcript:   out.transcript,
		Summary:      out.artifacts.Summary,
		Keywords:     out.artifacts.Keywords,
		Status:       core.RecordStatusCompleted,
	}
	if out.err != nil {
		rec.Status = core.RecordStatusFailed
		rec.ErrorMessage = out.err.Error()
	}

	if err := p.history.Upsert(ctx, rec); err != nil {
		p.logger.WarnContext(ctx, "history record failed",
			"recording_id", job.RecordingSID,
			"status", rec.Status,
			"error", err,
		)
	}
}
