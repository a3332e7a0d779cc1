package model

import "fmt"

// ValidationError indicates a webhook request missing required fields. The
// ingress surfaces it to the provider as HTTP 400; it never reaches the queue.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// FetchError indicates the recording could not be downloaded. It aborts the
// remaining productive steps of the job; the queue's retry policy, not the
// orchestrator, governs re-execution.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch recording %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch recording %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// TranscriptionError indicates the speech-to-text step failed, including the
// case of an unrecognizable or silent recording. It is distinct from an empty
// transcript being returned silently.
type TranscriptionError struct {
	Reason string
	Err    error
}

func (e *TranscriptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcription failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("transcription failed: %s", e.Reason)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// GenerationError indicates a generative text call failed. Purpose identifies
// which of the two fixed-instruction calls failed.
type GenerationError struct {
	Purpose string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s: %v", e.Purpose, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// DeliveryError indicates the downstream endpoint rejected the payload. It is
// logged, never retried, and does not prevent the job from reporting its
// terminal result.
type DeliveryError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("deliver payload: %v", e.Err)
	}
	return fmt.Sprintf("deliver payload: unexpected status %d: %s", e.StatusCode, e.Body)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
