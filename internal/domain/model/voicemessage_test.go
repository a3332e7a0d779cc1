package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoiceMessageJobValidate(t *testing.T) {
	tests := []struct {
		name      string
		job       VoiceMessageJob
		wantField string
	}{
		{
			name: "valid with recording sid",
			job:  VoiceMessageJob{RecordingURL: "https://x/a.wav", RecordingSID: "RS1", Origin: "+15551230000"},
		},
		{
			name: "valid without recording sid",
			job:  VoiceMessageJob{RecordingURL: "https://x/a.wav", Origin: "+15551230000"},
		},
		{
			name:      "missing recording url",
			job:       VoiceMessageJob{Origin: "+15551230000"},
			wantField: "recording_url",
		},
		{
			name:      "blank recording url",
			job:       VoiceMessageJob{RecordingURL: "   ", Origin: "+15551230000"},
			wantField: "recording_url",
		},
		{
			name:      "missing origin",
			job:       VoiceMessageJob{RecordingURL: "https://x/a.wav"},
			wantField: "origin_identifier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.job.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestDeliveryPayloadComplete(t *testing.T) {
	full := DeliveryPayload{
		IDConv:        "+15551230000",
		RecordingURL:  "https://x/a.wav",
		Transcription: "hello there",
		Resume:        "Hi, how can I help?",
		Tags:          "greeting, help",
	}
	assert.True(t, full.Complete())

	noID := full
	noID.IDConv = ""
	assert.False(t, noID.Complete())

	noTags := full
	noTags.Tags = ""
	assert.False(t, noTags.Complete())

	assert.False(t, DeliveryPayload{}.Complete())
}

func TestDeliveryPayloadJSONFieldNames(t *testing.T) {
	b, err := json.Marshal(DeliveryPayload{
		IDConv:        "RS1",
		RecordingURL:  "https://x/a.wav",
		Transcription: "hello there",
		Resume:        "Hi, how can I help?",
		Tags:          "greeting, help",
	})
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, map[string]string{
		"id_conv":                    "RS1",
		"recording_url":              "https://x/a.wav",
		"voicemessage_transcription": "hello there",
		"voicemessage_resume":        "Hi, how can I help?",
		"voicemessage_tags":          "greeting, help",
	}, got)
}

func TestErrorTaxonomyUnwrap(t *testing.T) {
	cause := errors.New("connection refused")

	ferr := fmt.Errorf("run job: %w", &FetchError{URL: "https://x/a.wav", Err: cause})
	var fetch *FetchError
	require.ErrorAs(t, ferr, &fetch)
	assert.ErrorIs(t, ferr, cause)

	terr := fmt.Errorf("run job: %w", &TranscriptionError{Reason: "no speech recognized"})
	var transcribe *TranscriptionError
	require.ErrorAs(t, terr, &transcribe)
	assert.Equal(t, "no speech recognized", transcribe.Reason)

	gerr := fmt.Errorf("run job: %w", &GenerationError{Purpose: "summary", Err: cause})
	var gen *GenerationError
	require.ErrorAs(t, gerr, &gen)
	assert.Equal(t, "summary", gen.Purpose)

	derr := &DeliveryError{StatusCode: 502, Body: "bad gateway"}
	assert.Contains(t, derr.Error(), "502")
}
