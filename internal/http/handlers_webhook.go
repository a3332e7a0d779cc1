package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/voicerelay/voicerelay/internal/core"
	"github.com/voicerelay/voicerelay/internal/domain/model"
	"github.com/voicerelay/voicerelay/internal/queue"
)

// Telephony providers post recording callbacks as form-encoded fields.
const (
	formRecordingURL = "RecordingUrl"
	formRecordingSID = "RecordingSid"
	formFrom         = "From"
)

// WebhookHandlers accepts telephony recording callbacks and hands them to the
// task queue.
type WebhookHandlers struct {
	Submitter core.TaskSubmitter
	Logger    *slog.Logger

	// WaitTimeout bounds the blocking-wait variant's wait for the job result.
	WaitTimeout time.Duration
}

// parseJob extracts and validates the job fields from the callback form.
// A nil return means the error response was already written. The provider
// only ever sees a bare status; what was wrong with the request goes to the
// log, not across the boundary.
func (h *WebhookHandlers) parseJob(w http.ResponseWriter, r *http.Request) *model.VoiceMessageJob {
	if err := r.ParseForm(); err != nil {
		h.Logger.WarnContext(r.Context(), "malformed callback form", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return nil
	}

	job := model.VoiceMessageJob{
		RecordingURL: strings.TrimSpace(r.PostFormValue(formRecordingURL)),
		RecordingSID: strings.TrimSpace(r.PostFormValue(formRecordingSID)),
		Origin:       strings.TrimSpace(r.PostFormValue(formFrom)),
	}
	if err := job.Validate(); err != nil {
		h.Logger.WarnContext(r.Context(), "invalid callback", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return nil
	}
	return &job
}

// writeSubmitError maps a submission failure onto a bare status code. Error
// detail stays in the log; the provider boundary carries only 400 or 500.
func (h *WebhookHandlers) writeSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *model.ValidationError
	if errors.As(err, &vErr) {
		h.Logger.WarnContext(r.Context(), "invalid callback", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	h.Logger.ErrorContext(r.Context(), "submit voice message failed", "error", err)
	w.WriteHeader(http.StatusInternalServerError)
}

// HandleCallback accepts a recording callback, enqueues the processing job and
// acknowledges immediately. The provider only needs the acknowledgement; the
// pipeline runs in the background.
func (h *WebhookHandlers) HandleCallback(w http.ResponseWriter, r *http.Request) {
	job := h.parseJob(w, r)
	if job == nil {
		return
	}

	handle, err := h.Submitter.SubmitVoiceMessage(r.Context(), *job)
	if err != nil {
		h.writeSubmitError(w, r, err)
		return
	}

	h.Logger.InfoContext(r.Context(), "voice message accepted",
		"job_id", handle.ID(),
		"recording_id", job.RecordingSID,
		"origin", job.Origin,
	)
	w.WriteHeader(http.StatusOK)
}

// HandleCallbackSync accepts a recording callback and blocks until the job
// reaches a terminal state or the wait window elapses. The provider still gets
// a 200 either way: a slow or failed job is an operational concern, not the
// caller's, and the in-flight execution continues past the wait.
func (h *WebhookHandlers) HandleCallbackSync(w http.ResponseWriter, r *http.Request) {
	job := h.parseJob(w, r)
	if job == nil {
		return
	}

	handle, err := h.Submitter.SubmitVoiceMessage(r.Context(), *job)
	if err != nil {
		h.writeSubmitError(w, r, err)
		return
	}

	timeout := h.WaitTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	switch _, waitErr := handle.Wait(r.Context(), timeout); {
	case waitErr == nil:
		h.Logger.InfoContext(r.Context(), "voice message processed before acknowledgement",
			"job_id", handle.ID(),
			"recording_id", job.RecordingSID,
		)
	case errors.Is(waitErr, queue.ErrWaitTimeout):
		h.Logger.WarnContext(r.Context(), "voice message still processing at acknowledgement",
			"job_id", handle.ID(),
			"recording_id", job.RecordingSID,
			"timeout", timeout,
		)
	default:
		h.Logger.ErrorContext(r.Context(), "voice message processing failed",
			"job_id", handle.ID(),
			"recording_id", job.RecordingSID,
			"error", waitErr,
		)
	}

	w.WriteHeader(http.StatusOK)
}
