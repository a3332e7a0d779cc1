// Package metrics centralizes metric emission for the voice-message pipeline.
package metrics

import (
	"time"

	obserrors "github.com/voicerelay/voicerelay/internal/observability/errors"
	"github.com/voicerelay/voicerelay/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Pipeline stages tagged on stage metrics.
const (
	StageFetch      = "fetch"
	StageTranscribe = "transcribe"
	StageGenerate   = "generate"
	StageDeliver    = "deliver"
)

// JobMetric captures details about a job lifecycle event for metric emission.
type JobMetric struct {
	Task     string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitJobLifecycle emits standardized job completion metrics.
func EmitJobLifecycle(sink statsd.Sink, in JobMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"task":   in.Task,
		"result": in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("job.completed", 1, tags)
	if in.Duration > 0 {
		sink.Timing("job.duration", in.Duration, cloneTags(tags))
	}
}

// EmitStage emits one pipeline stage outcome.
func EmitStage(sink statsd.Sink, stage string, duration time.Duration, err error) {
	if sink == nil {
		return
	}

	tags := map[string]string{"stage": stage, "result": ResultSuccess}
	if err != nil {
		tags["result"] = ResultError
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("pipeline.stage", 1, tags)
	if duration > 0 {
		sink.Timing("pipeline.stage_duration", duration, cloneTags(tags))
	}
}

func cloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
