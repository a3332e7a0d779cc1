package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicerelay/voicerelay/internal/domain/model"
)

var testPayload = model.DeliveryPayload{
	IDConv:        "RS1",
	RecordingURL:  "https://x/a.wav",
	Transcription: "hello there",
	Resume:        "Hi, how can I help?",
	Tags:          "greeting, help",
}

func TestDeliverPostsJSONPayload(t *testing.T) {
	var gotContentType string
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := New(Options{URL: srv.URL})

	require.NoError(t, d.Deliver(context.Background(), testPayload))
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, map[string]string{
		"id_conv":                    "RS1",
		"recording_url":              "https://x/a.wav",
		"voicemessage_transcription": "hello there",
		"voicemessage_resume":        "Hi, how can I help?",
		"voicemessage_tags":          "greeting, help",
	}, got)
}

func TestDeliverReportsNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer srv.Close()

	d := New(Options{URL: srv.URL})

	err := d.Deliver(context.Background(), testPayload)
	var derr *model.DeliveryError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, http.StatusBadGateway, derr.StatusCode)
	assert.Equal(t, "upstream unavailable", derr.Body)
}

func TestDeliverReportsNetworkFailure(t *testing.T) {
	d := New(Options{URL: "http://127.0.0.1:1/deliver"})

	err := d.Deliver(context.Background(), testPayload)
	var derr *model.DeliveryError
	require.ErrorAs(t, err, &derr)
	assert.Zero(t, derr.StatusCode)
}
