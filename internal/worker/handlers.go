package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/voicerelay/voicerelay/internal/domain/model"
	"github.com/voicerelay/voicerelay/internal/queue"
	"github.com/voicerelay/voicerelay/internal/service"
)

// VoiceMessageHandler adapts the processing pipeline to the runner's handler
// contract. The returned result string is the generated summary.
func VoiceMessageHandler(pipeline *service.Pipeline) HandlerFunc {
	return func(ctx context.Context, msg *queue.TaskMessage) (string, error) {
		var job model.VoiceMessageJob
		if err := json.Unmarshal(msg.Payload, &job); err != nil {
			return "", fmt.Errorf("decode voice message job: %w", err)
		}
		return pipeline.Process(ctx, job)
	}
}
