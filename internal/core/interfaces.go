// Package core defines the ports between the voicerelay pipeline and its
// adapters. Implementations live under internal/adapters, internal/queue and
// internal/data; mocks are generated into internal/mocks.
package core

import (
	"context"
	"time"

	"github.com/voicerelay/voicerelay/internal/domain/model"
)

// AudioFetcher downloads a recording to a uniquely named temporary local file
// and returns its path. The caller owns the file and is responsible for
// removing it.
type AudioFetcher interface {
	Fetch(ctx context.Context, recordingURL string) (string, error)
}

// Transcriber converts a local audio file to lowercase text. An
// unrecognizable or silent recording is a *model.TranscriptionError, never a
// silently empty transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Generator produces one completion for a transcript under a fixed system
// instruction. Both per-job generation calls go through this single
// operation, differing only in the instruction constant.
type Generator interface {
	Generate(ctx context.Context, instruction, transcript string) (string, error)
}

// Deliverer posts a complete payload to the downstream delivery endpoint.
type Deliverer interface {
	Deliver(ctx context.Context, payload model.DeliveryPayload) error
}

// ResultHandle is the caller-side handle for a submitted job. Callers may
// discard it (fire-and-forget) or block on Wait for the terminal result.
type ResultHandle interface {
	// ID returns the queue-assigned job identifier.
	ID() string

	// Wait blocks until the job's terminal result is available or the timeout
	// elapses. A worker-side failure surfaces as an error; a timeout only
	// bounds the caller's wait and does not abort the in-flight execution.
	Wait(ctx context.Context, timeout time.Duration) (string, error)
}

// TaskSubmitter enqueues voice-message jobs for background execution.
type TaskSubmitter interface {
	SubmitVoiceMessage(ctx context.Context, job model.VoiceMessageJob) (ResultHandle, error)
}

// ProcessedMessageRecord captures the outcome of one job execution for the
// optional history store.
type ProcessedMessageRecord struct {
	RecordingSID string
	RecordingURL string
	Origin       string
	Transcript   string
	Summary      string
	Keywords     string
	Status       string
	ErrorMessage string
}

// Statuses for ProcessedMessageRecord.
const (
	RecordStatusCompleted = "completed"
	RecordStatusFailed    = "failed"
)

// HistoryRepository persists processed-message outcomes. Implementations are
// best-effort from the pipeline's perspective: failures are logged, never
// escalated.
type HistoryRepository interface {
	Upsert(ctx context.Context, rec ProcessedMessageRecord) error
}
