package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/voicerelay/voicerelay/internal/data"
)

// HistoryReader is the read surface of the processed-message store exposed
// over HTTP. *data.HistoryRepo implements it.
type HistoryReader interface {
	GetByRecordingSID(ctx context.Context, recordingSID string) (*data.HistoryRecord, error)
	ListByOrigin(ctx context.Context, origin string, limit int) ([]*data.HistoryRecord, error)
}

// HistoryHandlers serves stored processed-message outcomes. The routes are
// only registered when a history store is configured.
type HistoryHandlers struct {
	History HistoryReader
	Logger  *slog.Logger
}

type processedMessageResponse struct {
	RecordingSID string    `json:"recording_id"`
	RecordingURL string    `json:"recording_url"`
	Origin       string    `json:"origin_identifier"`
	Transcript   string    `json:"transcript"`
	Summary      string    `json:"summary"`
	Keywords     string    `json:"keywords"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toProcessedMessageResponse(rec *data.HistoryRecord) processedMessageResponse {
	return processedMessageResponse{
		RecordingSID: rec.RecordingSID,
		RecordingURL: rec.RecordingURL,
		Origin:       rec.Origin,
		Transcript:   rec.Transcript,
		Summary:      rec.Summary,
		Keywords:     rec.Keywords,
		Status:       rec.Status,
		ErrorMessage: rec.ErrorMessage,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}

// HandleGetMessage returns the stored outcome for one recording.
func (h *HistoryHandlers) HandleGetMessage(w http.ResponseWriter, r *http.Request) {
	recordingSID := r.PathValue("recordingSID")

	rec, err := h.History.GetByRecordingSID(r.Context(), recordingSID)
	switch {
	case err == nil:
		WriteJSON(w, http.StatusOK, toProcessedMessageResponse(rec))
	case errors.Is(err, data.ErrRecordNotFound):
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: data.ErrRecordNotFound})
	case errors.Is(err, data.ErrRecordingIDRequired):
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_request", Err: data.ErrRecordingIDRequired})
	default:
		h.Logger.ErrorContext(r.Context(), "get processed message failed",
			"recording_id", recordingSID,
			"error", err,
		)
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "history_unavailable", Err: errors.New("history lookup failed")})
	}
}

// HandleListMessages lists stored outcomes for one origin, most recent first.
func (h *HistoryHandlers) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	origin := strings.TrimSpace(r.URL.Query().Get("origin"))
	if origin == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_request", Err: errors.New("origin query parameter is required")})
		return
	}

	var limit int
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_request", Err: errors.New("limit must be an integer")})
			return
		}
		limit = n
	}

	recs, err := h.History.ListByOrigin(r.Context(), origin, limit)
	if err != nil {
		h.Logger.ErrorContext(r.Context(), "list processed messages failed",
			"origin", origin,
			"error", err,
		)
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "history_unavailable", Err: errors.New("history lookup failed")})
		return
	}

	messages := make([]processedMessageResponse, 0, len(recs))
	for _, rec := range recs {
		messages = append(messages, toProcessedMessageResponse(rec))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"messages": messages})
}
