package queue

import (
	"encoding/json"
	"time"
)

// TaskMessage is the JSON envelope a submitted job travels in on the broker.
type TaskMessage struct {
	ID         string          `json:"id"`
	Task       string          `json:"task"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Result statuses stored in the result backend.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// TaskResult is the terminal outcome of one job execution, held by the result
// backend until its TTL expires or a waiting caller consumes it.
type TaskResult struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Result      string    `json:"result,omitempty"`
	Error       string    `json:"error,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}
