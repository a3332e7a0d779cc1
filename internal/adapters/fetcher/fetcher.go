// Package fetcher downloads provider recordings to per-job temporary files.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/voicerelay/voicerelay/internal/core"
	"github.com/voicerelay/voicerelay/internal/domain/model"
)

// Options configures the HTTP audio fetcher.
type Options struct {
	HTTPClient *http.Client

	// TempDir is the directory for downloaded audio files. Empty means the OS
	// default temp directory.
	TempDir string

	// Username/Password are sent as HTTP basic auth when both are set.
	// Telephony providers gate recording URLs behind account credentials.
	Username string
	Password string
}

// HTTP fetches recordings over HTTP(S).
type HTTP struct {
	client   *http.Client
	tempDir  string
	username string
	password string
}

var _ core.AudioFetcher = (*HTTP)(nil)

// New constructs an HTTP fetcher.
func New(opts Options) *HTTP {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTP{
		client:   client,
		tempDir:  opts.TempDir,
		username: opts.Username,
		password: opts.Password,
	}
}

// Fetch downloads the recording and writes it to a uniquely named temporary
// file, returning its path. The fresh random name is what keeps concurrently
// executing jobs from ever observing each other's audio.
func (f *HTTP) Fetch(ctx context.Context, recordingURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, recordingURL, nil)
	if err != nil {
		return "", &model.FetchError{URL: recordingURL, Err: err}
	}
	if f.username != "" && f.password != "" {
		req.SetBasicAuth(f.username, f.password)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &model.FetchError{URL: recordingURL, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &model.FetchError{URL: recordingURL, StatusCode: resp.StatusCode}
	}

	dest := filepath.Join(f.dir(), "voicemessage-"+uuid.NewString()+audioExt(recordingURL))
	file, err := os.Create(dest)
	if err != nil {
		return "", &model.FetchError{URL: recordingURL, Err: fmt.Errorf("create temp file: %w", err)}
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		_ = file.Close()
		_ = os.Remove(dest)
		return "", &model.FetchError{URL: recordingURL, Err: fmt.Errorf("write temp file: %w", err)}
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(dest)
		return "", &model.FetchError{URL: recordingURL, Err: fmt.Errorf("close temp file: %w", err)}
	}

	return dest, nil
}

func (f *HTTP) dir() string {
	if f.tempDir != "" {
		return f.tempDir
	}
	return os.TempDir()
}

// audioExt keeps the recording's extension when the URL carries one, so the
// transcription service can rely on it for format detection.
func audioExt(recordingURL string) string {
	u, err := url.Parse(recordingURL)
	if err != nil {
		return ".wav"
	}
	if ext := path.Ext(u.Path); ext != "" {
		return ext
	}
	return ".wav"
}
