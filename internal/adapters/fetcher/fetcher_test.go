package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicerelay/voicerelay/internal/domain/model"
)

func TestFetchWritesUniqueTempFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("RIFF-audio-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := New(Options{TempDir: dir})

	path, err := f.Fetch(context.Background(), srv.URL+"/recordings/a.wav")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Remove(path) })

	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "voicemessage-"))
	assert.Equal(t, ".wav", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "RIFF-audio-bytes", string(data))
}

func TestFetchSendsBasicAuthWhenConfigured(t *testing.T) {
	var gotUser, gotPass string
	var gotOK bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, gotOK = r.BasicAuth()
		_, _ = w.Write([]byte("audio"))
	}))
	defer srv.Close()

	f := New(Options{TempDir: t.TempDir(), Username: "AC123", Password: "token"})

	path, err := f.Fetch(context.Background(), srv.URL+"/a.mp3")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Remove(path) })

	require.True(t, gotOK)
	assert.Equal(t, "AC123", gotUser)
	assert.Equal(t, "token", gotPass)
	assert.Equal(t, ".mp3", filepath.Ext(path))
}

func TestFetchFailsOnNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := New(Options{TempDir: dir})

	_, err := f.Fetch(context.Background(), srv.URL+"/missing.wav")
	var ferr *model.FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, http.StatusNotFound, ferr.StatusCode)

	// No temp file may be left behind on a failed fetch.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFetchFailsOnNetworkError(t *testing.T) {
	f := New(Options{TempDir: t.TempDir()})

	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/a.wav")
	var ferr *model.FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Zero(t, ferr.StatusCode)
}

func TestConcurrentFetchesNeverShareFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Echo the request path so each job's bytes are distinguishable.
		_, _ = w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := New(Options{TempDir: dir})

	const jobs = 8
	paths := make([]string, jobs)
	errs := make([]error, jobs)
	var wg sync.WaitGroup
	for i := range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			paths[i], errs[i] = f.Fetch(context.Background(), srv.URL+"/rec/"+string(rune('a'+i))+".wav")
		}()
	}
	wg.Wait()
	for i := range jobs {
		require.NoError(t, errs[i])
	}

	seen := make(map[string]bool, jobs)
	for i, p := range paths {
		assert.False(t, seen[p], "temp file name reused: %s", p)
		seen[p] = true

		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, "/rec/"+string(rune('a'+i))+".wav", string(data))
		_ = os.Remove(p)
	}
}
