// Package generator produces text artifacts from transcripts through an
// OpenAI-compatible chat completions API.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/voicerelay/voicerelay/internal/core"
)

const maxErrorBodyBytes = 4 * 1024

// Options configures the generation client.
type Options struct {
	// BaseURL is the API root, e.g. "https://api.openai.com/v1".
	BaseURL string
	APIKey  string
	Model   string

	// ExemplarUser/ExemplarAssistant optionally seed one few-shot turn pair
	// between the system instruction and the transcript.
	ExemplarUser      string
	ExemplarAssistant string

	HTTPClient *http.Client
	Timeout    time.Duration
}

// OpenAI is a client for the /chat/completions endpoint.
type OpenAI struct {
	baseURL           string
	apiKey            string
	model             string
	exemplarUser      string
	exemplarAssistant string
	client            *http.Client
}

var _ core.Generator = (*OpenAI)(nil)

// New constructs a generation client.
func New(opts Options) *OpenAI {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 45 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	model := opts.Model
	if model == "" {
		model = "gpt-3.5-turbo"
	}

	return &OpenAI{
		baseURL:           strings.TrimRight(opts.BaseURL, "/"),
		apiKey:            opts.APIKey,
		model:             model,
		exemplarUser:      opts.ExemplarUser,
		exemplarAssistant: opts.ExemplarAssistant,
		client:            client,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate sends the transcript as the final user turn under the given system
// instruction and returns the whitespace-trimmed completion.
func (o *OpenAI) Generate(ctx context.Context, instruction, transcript string) (string, error) {
	messages := make([]chatMessage, 0, 4)
	messages = append(messages, chatMessage{Role: "system", Content: instruction})
	if o.exemplarUser != "" && o.exemplarAssistant != "" {
		messages = append(messages,
			chatMessage{Role: "user", Content: o.exemplarUser},
			chatMessage{Role: "assistant", Content: o.exemplarAssistant},
		)
	}
	messages = append(messages, chatMessage{Role: "user", Content: transcript})

	body, err := json.Marshal(chatRequest{Model: o.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call generation service: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("response contained no choices")
	}

	completion := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if completion == "" {
		return "", errors.New("response contained an empty completion")
	}
	return completion, nil
}
