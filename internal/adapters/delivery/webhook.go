// Package delivery posts processed voice-message artifacts to the downstream
// consumer endpoint.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/voicerelay/voicerelay/internal/core"
	"github.com/voicerelay/voicerelay/internal/domain/model"
)

const maxResponseBodyBytes = 4 * 1024

// Options configures the delivery client.
type Options struct {
	// URL is the downstream delivery endpoint.
	URL string

	HTTPClient *http.Client
	Timeout    time.Duration
}

// Webhook delivers payloads with a single JSON POST per job. Non-success
// responses are terminal for that delivery attempt; the job is never
// re-enqueued because of them.
type Webhook struct {
	url    string
	client *http.Client
}

var _ core.Deliverer = (*Webhook)(nil)

// New constructs a delivery client.
func New(opts Options) *Webhook {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Webhook{url: opts.URL, client: client}
}

// Deliver posts the payload. Only the response status is interpreted; a
// non-2xx status yields a *model.DeliveryError carrying the status code and a
// truncated copy of the body for the log line.
func (w *Webhook) Deliver(ctx context.Context, payload model.DeliveryPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &model.DeliveryError{Err: fmt.Errorf("marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return &model.DeliveryError{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return &model.DeliveryError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
		return &model.DeliveryError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(detail)),
		}
	}
	return nil
}
