// Package worker pulls task envelopes off the broker and executes them with
// registered handlers, storing terminal results on the result backend.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	obserrors "github.com/voicerelay/voicerelay/internal/observability/errors"
	"github.com/voicerelay/voicerelay/internal/observability/metrics"
	"github.com/voicerelay/voicerelay/internal/observability/notify"
	"github.com/voicerelay/voicerelay/internal/observability/statsd"
	"github.com/voicerelay/voicerelay/internal/queue"
	"github.com/voicerelay/voicerelay/internal/service/failurenotifier"
)

// HandlerFunc executes one task and returns the result string stored on the
// result backend. An error marks the job failed; there is no retry.
type HandlerFunc func(ctx context.Context, msg *queue.TaskMessage) (string, error)

// RunnerOptions configures the worker runner.
type RunnerOptions struct {
	Queue  *queue.Queue
	Logger *slog.Logger

	// Concurrency is the number of worker goroutines; defaults to 1.
	Concurrency int

	// DequeueTimeout bounds each blocking dequeue; defaults to 5s.
	DequeueTimeout time.Duration

	Metrics         statsd.Sink
	FailureNotifier *failurenotifier.Service
}

// Runner pulls tasks and executes them using registered handlers.
type Runner struct {
	queue          *queue.Queue
	logger         *slog.Logger
	workers        int
	dequeueTimeout time.Duration
	metrics        statsd.Sink
	notifier       *failurenotifier.Service

	mu       sync.Mutex
	tasks    []string
	handlers map[string]HandlerFunc
}

// NewRunner constructs a Runner. Handlers are registered separately before Run.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Queue == nil {
		return nil, errors.New("worker runner requires a queue")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "worker")
	}

	workers := opts.Concurrency
	if workers <= 0 {
		workers = 1
	}

	dequeueTimeout := opts.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5 * time.Second
	}

	return &Runner{
		queue:          opts.Queue,
		logger:         logger,
		workers:        workers,
		dequeueTimeout: dequeueTimeout,
		metrics:        opts.Metrics,
		notifier:       opts.FailureNotifier,
		handlers:       make(map[string]HandlerFunc),
	}, nil
}

// Register binds a handler to a task name. Registering the same name twice
// replaces the previous handler.
func (r *Runner) Register(task string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[task]; !exists {
		r.tasks = append(r.tasks, task)
	}
	r.handlers[task] = h
}

// Run starts worker goroutines and processes tasks until the context is
// cancelled. Broker errors back off exponentially instead of failing the
// runner, so a Redis blip does not take the worker down.
func (r *Runner) Run(ctx context.Context) error {
	r.mu.Lock()
	tasks := make([]string, len(r.tasks))
	copy(tasks, r.tasks)
	r.mu.Unlock()

	if len(tasks) == 0 {
		return errors.New("worker runner has no registered handlers")
	}

	r.logger.InfoContext(ctx, "starting worker runner", "workers", r.workers, "tasks", tasks)

	var wg sync.WaitGroup
	for range r.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.workerLoop(ctx, tasks)
		}()
	}
	wg.Wait()

	return ctx.Err()
}

func (r *Runner) workerLoop(ctx context.Context, tasks []string) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0

	for ctx.Err() == nil {
		msg, err := r.queue.DequeueAny(ctx, tasks, r.dequeueTimeout)
		switch {
		case err == nil:
			bo.Reset()
			r.processTask(ctx, msg)
		case errors.Is(err, queue.ErrNoTasks):
			bo.Reset()
		case ctx.Err() != nil:
			return
		default:
			wait := bo.NextBackOff()
			r.logger.ErrorContext(ctx, "dequeue failed, backing off", "error", err, "wait", wait)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}
}

func (r *Runner) processTask(ctx context.Context, msg *queue.TaskMessage) {
	start := time.Now()

	r.mu.Lock()
	handler, ok := r.handlers[msg.Task]
	r.mu.Unlock()

	if !ok {
		err := fmt.Errorf("no handler for task %s", msg.Task)
		r.finishTask(ctx, msg, taskOutcome{start: start, err: err})
		return
	}

	result, err := handler(ctx, msg)
	r.finishTask(ctx, msg, taskOutcome{start: start, result: result, err: err})
}

type taskOutcome struct {
	start  time.Time
	result string
	err    error
}

func (r *Runner) finishTask(ctx context.Context, msg *queue.TaskMessage, out taskOutcome) {
	res := queue.TaskResult{
		ID:          msg.ID,
		Status:      queue.StatusCompleted,
		Result:      out.result,
		CompletedAt: time.Now().UTC(),
	}
	metric := metrics.JobMetric{
		Task:     msg.Task,
		Result:   metrics.ResultSuccess,
		Duration: time.Since(out.start),
	}

	if out.err != nil {
		res.Status = queue.StatusFailed
		res.Result = ""
		res.Error = out.err.Error()
		metric.Result = metrics.ResultError
		metric.Err = out.err

		r.logger.ErrorContext(ctx, "task failed",
			"task", msg.Task,
			"job_id", msg.ID,
			"duration", time.Since(out.start),
			"error", out.err,
		)
		r.notifyFailure(ctx, msg, out.err)
	} else {
		r.logger.InfoContext(ctx, "task completed",
			"task", msg.Task,
			"job_id", msg.ID,
			"duration", time.Since(out.start),
		)
	}

	metrics.EmitJobLifecycle(r.metrics, metric)

	if err := r.queue.StoreResult(ctx, res); err != nil {
		r.logger.ErrorContext(ctx, "store task result failed", "job_id", msg.ID, "error", err)
	}
}

// notifyFailure fans the terminal failure out to the configured sinks. The
// payload probe pulls job identity fields out of the envelope when present so
// notifications carry the recording and origin context.
func (r *Runner) notifyFailure(ctx context.Context, msg *queue.TaskMessage, taskErr error) {
	if r.notifier == nil {
		return
	}

	var probe struct {
		RecordingSID string `json:"recording_id"`
		Origin       string `json:"origin_identifier"`
	}
	_ = json.Unmarshal(msg.Payload, &probe)

	r.notifier.NotifyJobFailure(ctx, notify.JobFailurePayload{
		JobID:        msg.ID,
		Task:         msg.Task,
		RecordingSID: probe.RecordingSID,
		Origin:       probe.Origin,
		Error:        taskErr.Error(),
		ErrorClass:   obserrors.Classify(taskErr),
		Severity:     notify.SeverityCritical,
		OccurredAt:   time.Now().UTC(),
	})
}
