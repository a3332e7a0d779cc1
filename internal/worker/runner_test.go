package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicerelay/voicerelay/internal/domain/model"
	"github.com/voicerelay/voicerelay/internal/observability/notify"
	"github.com/voicerelay/voicerelay/internal/queue"
	"github.com/voicerelay/voicerelay/internal/service/failurenotifier"
	"github.com/voicerelay/voicerelay/internal/testutil"
)

func newTestRunner(t *testing.T, opts RunnerOptions) (*Runner, *queue.Queue) {
	t.Helper()
	client := testutil.SetupTestRedis(t)
	q, err := queue.New(queue.Options{
		Broker:    client,
		KeyPrefix: "voicerelay_worker_test:",
		ResultTTL: time.Minute,
	})
	require.NoError(t, err)

	opts.Queue = q
	if opts.DequeueTimeout == 0 {
		opts.DequeueTimeout = time.Second
	}
	r, err := NewRunner(opts)
	require.NoError(t, err)
	return r, q
}

// runUntilCancel starts the runner in the background and returns a stop
// function tests call once their assertions are done.
func runUntilCancel(t *testing.T, r *Runner) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(ctx)
	}()
	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			t.Fatal("runner did not stop after cancel")
		}
	}
}

func TestNewRunnerRequiresQueue(t *testing.T) {
	_, err := NewRunner(RunnerOptions{})
	require.Error(t, err)
}

func TestRunRequiresHandlers(t *testing.T) {
	r, _ := newTestRunner(t, RunnerOptions{})
	require.Error(t, r.Run(context.Background()))
}

func TestRunnerCompletesTask(t *testing.T) {
	r, q := newTestRunner(t, RunnerOptions{Concurrency: 2})
	r.Register(model.TaskVoiceMessage, func(_ context.Context, msg *queue.TaskMessage) (string, error) {
		var job model.VoiceMessageJob
		require.NoError(t, json.Unmarshal(msg.Payload, &job))
		return "summary for " + job.RecordingSID, nil
	})

	stop := runUntilCancel(t, r)
	defer stop()

	ctx := context.Background()
	handle, err := q.SubmitVoiceMessage(ctx, model.VoiceMessageJob{
		RecordingURL: "https://x/a.wav",
		RecordingSID: "RS1",
		Origin:       "+15550100",
	})
	require.NoError(t, err)

	result, err := handle.Wait(ctx, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "summary for RS1", result)
}

func TestRunnerStoresFailureAndNotifies(t *testing.T) {
	var (
		mu       sync.Mutex
		notified []notify.JobFailurePayload
	)
	sink := notify.SinkFunc(func(_ context.Context, payload notify.JobFailurePayload) error {
		mu.Lock()
		defer mu.Unlock()
		notified = append(notified, payload)
		return nil
	})

	r, q := newTestRunner(t, RunnerOptions{
		FailureNotifier: failurenotifier.NewService(failurenotifier.Options{
			Sinks: []failurenotifier.SinkRegistration{{Name: "test", Sink: sink}},
		}),
	})
	r.Register(model.TaskVoiceMessage, func(context.Context, *queue.TaskMessage) (string, error) {
		return "", &model.TranscriptionError{Reason: "no speech recognized"}
	})

	stop := runUntilCancel(t, r)
	defer stop()

	ctx := context.Background()
	handle, err := q.SubmitVoiceMessage(ctx, model.VoiceMessageJob{
		RecordingURL: "https://x/a.wav",
		RecordingSID: "RS2",
		Origin:       "+15550100",
	})
	require.NoError(t, err)

	_, waitErr := handle.Wait(ctx, 10*time.Second)
	var jerr *queue.JobFailedError
	require.ErrorAs(t, waitErr, &jerr)
	assert.Contains(t, jerr.Message, "no speech recognized")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, notified, 1)
	assert.Equal(t, handle.ID(), notified[0].JobID)
	assert.Equal(t, model.TaskVoiceMessage, notified[0].Task)
	assert.Equal(t, "RS2", notified[0].RecordingSID)
	assert.Equal(t, "+15550100", notified[0].Origin)
	assert.NotEmpty(t, notified[0].ErrorClass)
}

func TestRunnerProcessesBacklogSequentially(t *testing.T) {
	r, q := newTestRunner(t, RunnerOptions{Concurrency: 1})

	var mu sync.Mutex
	seen := make(map[string]bool)
	r.Register(model.TaskVoiceMessage, func(_ context.Context, msg *queue.TaskMessage) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		seen[msg.ID] = true
		return "ok", nil
	})

	ctx := context.Background()
	handles := make([]string, 0, 3)
	for _, sid := range []string{"RS1", "RS2", "RS3"} {
		handle, err := q.SubmitVoiceMessage(ctx, model.VoiceMessageJob{
			RecordingURL: "https://x/" + sid + ".wav",
			RecordingSID: sid,
			Origin:       "+15550100",
		})
		require.NoError(t, err)
		handles = append(handles, handle.ID())
	}

	stop := runUntilCancel(t, r)
	defer stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3
	}, 10*time.Second, 50*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, id := range handles {
		assert.True(t, seen[id], "job %s should have been processed", id)
	}
}

func TestVoiceMessageHandlerRejectsMalformedPayload(t *testing.T) {
	h := VoiceMessageHandler(nil)

	_, err := h(context.Background(), &queue.TaskMessage{
		ID:      "j1",
		Task:    model.TaskVoiceMessage,
		Payload: []byte("{not json"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode voice message job")
}
