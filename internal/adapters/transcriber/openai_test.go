package transcriber

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicerelay/voicerelay/internal/domain/model"
)

func writeAudioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voicemessage-test.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF-audio-bytes"), 0o600))
	return path
}

func TestTranscribeLowercasesAndTrims(t *testing.T) {
	var gotAuth, gotModel, gotFile string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotModel = r.FormValue("model")
		if _, header, err := r.FormFile("file"); err == nil {
			gotFile = header.Filename
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text": "  Hello There \n"}`))
	}))
	defer srv.Close()

	o := New(Options{BaseURL: srv.URL, APIKey: "sk-test", Model: "whisper-1"})

	text, err := o.Transcribe(context.Background(), writeAudioFile(t))
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "whisper-1", gotModel)
	assert.Equal(t, "voicemessage-test.wav", gotFile)
}

func TestTranscribeTreatsBlankRecognitionAsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text": "   "}`))
	}))
	defer srv.Close()

	o := New(Options{BaseURL: srv.URL})

	_, err := o.Transcribe(context.Background(), writeAudioFile(t))
	var terr *model.TranscriptionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "no speech recognized", terr.Reason)
}

func TestTranscribeFailsOnUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer srv.Close()

	o := New(Options{BaseURL: srv.URL})

	_, err := o.Transcribe(context.Background(), writeAudioFile(t))
	var terr *model.TranscriptionError
	require.ErrorAs(t, err, &terr)
	assert.Contains(t, terr.Reason, "429")
}

func TestTranscribeFailsOnMissingFile(t *testing.T) {
	o := New(Options{BaseURL: "http://127.0.0.1:1"})

	_, err := o.Transcribe(context.Background(), filepath.Join(t.TempDir(), "nope.wav"))
	var terr *model.TranscriptionError
	require.ErrorAs(t, err, &terr)
}
