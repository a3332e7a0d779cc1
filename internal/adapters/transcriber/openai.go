// Package transcriber converts recorded audio to text through an
// OpenAI-compatible speech-to-text API.
package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/voicerelay/voicerelay/internal/core"
	"github.com/voicerelay/voicerelay/internal/domain/model"
)

const maxErrorBodyBytes = 4 * 1024

// Options configures the transcription client.
type Options struct {
	// BaseURL is the API root, e.g. "https://api.openai.com/v1".
	BaseURL string
	APIKey  string
	Model   string

	HTTPClient *http.Client
	Timeout    time.Duration
}

// OpenAI is a client for the /audio/transcriptions endpoint.
type OpenAI struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

var _ core.Transcriber = (*OpenAI)(nil)

// New constructs a transcription client.
func New(opts Options) *OpenAI {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	model := opts.Model
	if model == "" {
		model = "whisper-1"
	}

	return &OpenAI{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		model:   model,
		client:  client,
	}
}

// Transcribe uploads the audio file and returns the recognized text,
// lowercased and trimmed. A blank recognition result is a failure: silence is
// reported as a *model.TranscriptionError, never as an empty transcript.
func (o *OpenAI) Transcribe(ctx context.Context, audioPath string) (string, error) {
	body, contentType, err := buildUpload(audioPath, o.model)
	if err != nil {
		return "", &model.TranscriptionError{Reason: "prepare upload", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/audio/transcriptions", body)
	if err != nil {
		return "", &model.TranscriptionError{Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return "", &model.TranscriptionError{Reason: "call transcription service", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", &model.TranscriptionError{
			Reason: fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))),
		}
	}

	var decoded struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &model.TranscriptionError{Reason: "decode response", Err: err}
	}

	text := strings.ToLower(strings.TrimSpace(decoded.Text))
	if text == "" {
		return "", &model.TranscriptionError{Reason: "no speech recognized"}
	}
	return text, nil
}

// buildUpload assembles the multipart form for one transcription request. The
// whole file is buffered; voice messages are short enough that streaming the
// upload is not worth the extra plumbing.
func buildUpload(audioPath, modelName string) (io.Reader, string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("open audio file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("model", modelName); err != nil {
		return nil, "", fmt.Errorf("write model field: %w", err)
	}
	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("copy audio: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize multipart body: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}
