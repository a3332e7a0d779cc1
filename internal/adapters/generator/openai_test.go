package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBuildsConversationTurns(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Hi, how can I help? \n"}}]}`))
	}))
	defer srv.Close()

	g := New(Options{
		BaseURL:           srv.URL,
		APIKey:            "sk-test",
		Model:             "gpt-3.5-turbo",
		ExemplarUser:      "Who are you?",
		ExemplarAssistant: "I am the voicemail assistant.",
	})

	completion, err := g.Generate(context.Background(), "summarize the message", "hello there")
	require.NoError(t, err)
	assert.Equal(t, "Hi, how can I help?", completion)

	require.Len(t, got.Messages, 4)
	assert.Equal(t, chatMessage{Role: "system", Content: "summarize the message"}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "Who are you?"}, got.Messages[1])
	assert.Equal(t, chatMessage{Role: "assistant", Content: "I am the voicemail assistant."}, got.Messages[2])
	assert.Equal(t, chatMessage{Role: "user", Content: "hello there"}, got.Messages[3])
	assert.Equal(t, "gpt-3.5-turbo", got.Model)
}

func TestGenerateSkipsExemplarsWhenUnset(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"greeting, help"}}]}`))
	}))
	defer srv.Close()

	g := New(Options{BaseURL: srv.URL})

	completion, err := g.Generate(context.Background(), "extract keywords", "hello there")
	require.NoError(t, err)
	assert.Equal(t, "greeting, help", completion)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
}

func TestGenerateFailsOnUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"quota exceeded"}`))
	}))
	defer srv.Close()

	g := New(Options{BaseURL: srv.URL})

	_, err := g.Generate(context.Background(), "summarize", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGenerateFailsOnEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	g := New(Options{BaseURL: srv.URL})

	_, err := g.Generate(context.Background(), "summarize", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestGenerateFailsOnMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": [{`))
	}))
	defer srv.Close()

	g := New(Options{BaseURL: srv.URL})

	_, err := g.Generate(context.Background(), "summarize", "hello")
	require.Error(t, err)
}
