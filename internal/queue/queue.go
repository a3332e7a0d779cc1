// Package queue implements the Redis-backed task queue carrying voice-message
// jobs from the webhook ingress to the pipeline workers, and their terminal
// results back to blocking-wait callers.
//
// The broker is a Redis list per task name (LPUSH to enqueue, BRPOP to
// dequeue), giving at-least-once pickup by exactly one worker and no ordering
// guarantee across jobs. The result backend is a Redis list per job ID with a
// TTL, so a caller holding the submission handle can block on the terminal
// result with a bounded wait, or ignore it entirely.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/voicerelay/voicerelay/internal/core"
	"github.com/voicerelay/voicerelay/internal/domain/model"
)

var (
	// ErrNoTasks is returned by Dequeue when no task arrived within the
	// blocking window.
	ErrNoTasks = errors.New("queue: no tasks available")

	// ErrWaitTimeout is returned by a result handle's Wait when the job did
	// not reach a terminal state within the caller's timeout. The in-flight
	// worker execution is unaffected.
	ErrWaitTimeout = errors.New("queue: timed out waiting for result")
)

// JobFailedError surfaces a worker-side terminal failure to a blocking-wait
// caller.
type JobFailedError struct {
	JobID   string
	Message string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("job %s failed: %s", e.JobID, e.Message)
}

// Options configures a Queue.
type Options struct {
	// Broker hands task envelopes to workers.
	Broker redis.UniversalClient

	// ResultBackend holds terminal results. Defaults to Broker when nil.
	ResultBackend redis.UniversalClient

	// KeyPrefix namespaces all keys. Defaults to "voicerelay:".
	KeyPrefix string

	// ResultTTL bounds how long an unconsumed terminal result is retained.
	ResultTTL time.Duration

	Logger *slog.Logger
}

// Queue is the broker-backed task queue. It is safe for concurrent use.
type Queue struct {
	broker    redis.UniversalClient
	results   redis.UniversalClient
	prefix    string
	resultTTL time.Duration
	logger    *slog.Logger
}

var _ core.TaskSubmitter = (*Queue)(nil)

// New constructs a Queue.
func New(opts Options) (*Queue, error) {
	if opts.Broker == nil {
		return nil, errors.New("broker client is required")
	}

	results := opts.ResultBackend
	if results == nil {
		results = opts.Broker
	}

	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "voicerelay:"
	}

	ttl := opts.ResultTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Queue{
		broker:    opts.Broker,
		results:   results,
		prefix:    prefix,
		resultTTL: ttl,
		logger:    logger,
	}, nil
}

func (q *Queue) taskKey(task string) string { return q.prefix + "queue:" + task }
func (q *Queue) resultKey(id string) string { return q.prefix + "result:" + id }

// Enqueue submits a payload under the given task name and returns the
// caller's result handle.
func (q *Queue) Enqueue(ctx context.Context, task string, payload any) (*PendingResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal task payload: %w", err)
	}

	msg := TaskMessage{
		ID:         uuid.NewString(),
		Task:       task,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
	}
	envelope, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal task envelope: %w", err)
	}

	if err := q.broker.LPush(ctx, q.taskKey(task), envelope).Err(); err != nil {
		return nil, fmt.Errorf("enqueue task: %w", err)
	}

	q.logger.InfoContext(ctx, "task enqueued", "task", task, "job_id", msg.ID)
	return &PendingResult{id: msg.ID, queue: q}, nil
}

// SubmitVoiceMessage validates and enqueues a voice-message job.
func (q *Queue) SubmitVoiceMessage(ctx context.Context, job model.VoiceMessageJob) (core.ResultHandle, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return q.Enqueue(ctx, model.TaskVoiceMessage, job)
}

// Dequeue blocks up to the given window for the next task envelope. It
// returns ErrNoTasks when the window elapses without work.
func (q *Queue) Dequeue(ctx context.Context, task string, block time.Duration) (*TaskMessage, error) {
	if block < time.Second {
		block = time.Second
	}

	res, err := q.broker.BRPop(ctx, block, q.taskKey(task)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoTasks
		}
		return nil, fmt.Errorf("dequeue task: %w", err)
	}
	// BRPOP returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("dequeue task: unexpected reply length %d", len(res))
	}

	var msg TaskMessage
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		return nil, fmt.Errorf("decode task envelope: %w", err)
	}
	return &msg, nil
}

// DequeueAny blocks up to the given window for the next envelope across any
// of the given task names. Earlier names win when several have work.
func (q *Queue) DequeueAny(ctx context.Context, tasks []string, block time.Duration) (*TaskMessage, error) {
	if len(tasks) == 0 {
		return nil, errors.New("dequeue: no task names given")
	}
	if block < time.Second {
		block = time.Second
	}

	keys := make([]string, len(tasks))
	for i, task := range tasks {
		keys[i] = q.taskKey(task)
	}

	res, err := q.broker.BRPop(ctx, block, keys...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoTasks
		}
		return nil, fmt.Errorf("dequeue task: %w", err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("dequeue task: unexpected reply length %d", len(res))
	}

	var msg TaskMessage
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		return nil, fmt.Errorf("decode task envelope: %w", err)
	}
	return &msg, nil
}

// StoreResult records a job's terminal result in the result backend and
// wakes any caller blocked on it. Unconsumed results expire after the
// configured TTL.
func (q *Queue) StoreResult(ctx context.Context, res TaskResult) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal task result: %w", err)
	}

	key := q.resultKey(res.ID)
	pipe := q.results.TxPipeline()
	pipe.LPush(ctx, key, raw)
	pipe.Expire(ctx, key, q.resultTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store task result: %w", err)
	}
	return nil
}

// PendingResult is the submission handle returned by Enqueue.
type PendingResult struct {
	id    string
	queue *Queue
}

var _ core.ResultHandle = (*PendingResult)(nil)

// ID returns the queue-assigned job identifier.
func (p *PendingResult) ID() string { return p.id }

// Wait blocks until the job's terminal result arrives or the timeout
// elapses. A completed job yields its result value; a failed job yields a
// *JobFailedError. The result is consumed: Wait is a single-caller
// operation, matching the one webhook request that submitted the job.
func (p *PendingResult) Wait(ctx context.Context, timeout time.Duration) (string, error) {
	if timeout < time.Second {
		timeout = time.Second
	}

	res, err := p.queue.results.BRPop(ctx, timeout, p.queue.resultKey(p.id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrWaitTimeout
		}
		return "", fmt.Errorf("wait for result: %w", err)
	}
	if len(res) != 2 {
		return "", fmt.Errorf("wait for result: unexpected reply length %d", len(res))
	}

	var result TaskResult
	if err := json.Unmarshal([]byte(res[1]), &result); err != nil {
		return "", fmt.Errorf("decode task result: %w", err)
	}

	if result.Status == StatusFailed {
		return "", &JobFailedError{JobID: p.id, Message: result.Error}
	}
	return result.Result, nil
}
