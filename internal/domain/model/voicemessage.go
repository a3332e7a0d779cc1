// Package model contains the domain types for the voicerelay pipeline.
package model

import "strings"

// TaskVoiceMessage is the task name under which voice-message jobs are
// enqueued and dequeued.
const TaskVoiceMessage = "voicemessage.process"

// VoiceMessageJob is the unit of work submitted to the task queue. It is
// created at webhook-ingress time from validated request fields and is
// immutable once enqueued; a single worker execution consumes it exactly once.
type VoiceMessageJob struct {
	// RecordingURL locates the source audio. Required, treated as opaque.
	RecordingURL string `json:"recording_url"`

	// RecordingSID is the provider-assigned identifier correlating the job to
	// the original recording event. Optional at ingress, but downstream
	// delivery sends it as id_conv and is skipped without it; history keys on
	// it when present.
	RecordingSID string `json:"recording_id,omitempty"`

	// Origin is the caller-identifying value (e.g. a phone number) associated
	// with the recording. Required.
	Origin string `json:"origin_identifier"`
}

// Validate checks the required fields of a job.
func (j VoiceMessageJob) Validate() error {
	if strings.TrimSpace(j.RecordingURL) == "" {
		return &ValidationError{Field: "recording_url"}
	}
	if strings.TrimSpace(j.Origin) == "" {
		return &ValidationError{Field: "origin_identifier"}
	}
	return nil
}

// GeneratedArtifacts holds the pair of texts produced by the two
// independently-instructed generation calls over the same transcript.
type GeneratedArtifacts struct {
	Summary  string
	Keywords string
}

// DeliveryPayload is the structured object posted to the downstream delivery
// endpoint. Every field must be populated from a single job's transcript and
// artifacts before delivery; partial payloads are never sent.
type DeliveryPayload struct {
	IDConv        string `json:"id_conv"`
	RecordingURL  string `json:"recording_url"`
	Transcription string `json:"voicemessage_transcription"`
	Resume        string `json:"voicemessage_resume"`
	Tags          string `json:"voicemessage_tags"`
}

// Complete reports whether every delivery field is populated.
func (p DeliveryPayload) Complete() bool {
	return p.IDConv != "" && p.RecordingURL != "" && p.Transcription != "" && p.Resume != "" && p.Tags != ""
}
