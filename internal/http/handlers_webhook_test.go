package httpx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/voicerelay/voicerelay/internal/domain/model"
	"github.com/voicerelay/voicerelay/internal/mocks"
	"github.com/voicerelay/voicerelay/internal/queue"
)

func newTestRouter(t *testing.T) (http.Handler, *mocks.MockTaskSubmitter) {
	t.Helper()
	ctrl := gomock.NewController(t)
	submitter := mocks.NewMockTaskSubmitter(ctrl)

	router := NewRouter(RouterServices{
		Submitter:   submitter,
		WaitTimeout: time.Second,
		Logger:      slog.New(slog.DiscardHandler),
	})
	return router, submitter
}

func postForm(t *testing.T, router http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func validForm() url.Values {
	return url.Values{
		"RecordingUrl": {"https://api.twilio.com/recordings/RS1"},
		"RecordingSid": {"RS1"},
		"From":         {"+15550100"},
	}
}

func TestWebhookAcceptsCallback(t *testing.T) {
	router, submitter := newTestRouter(t)

	handle := mocks.NewMockResultHandle(gomock.NewController(t))
	handle.EXPECT().ID().Return("job-1").AnyTimes()
	submitter.EXPECT().
		SubmitVoiceMessage(gomock.Any(), model.VoiceMessageJob{
			RecordingURL: "https://api.twilio.com/recordings/RS1",
			RecordingSID: "RS1",
			Origin:       "+15550100",
		}).
		Return(handle, nil)

	rec := postForm(t, router, "/webhook", validForm())
	assert.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestWebhookRejectsMissingRecordingURL(t *testing.T) {
	router, _ := newTestRouter(t)

	form := validForm()
	form.Del("RecordingUrl")

	rec := postForm(t, router, "/webhook", form)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Body.String(), "validation detail must not cross the provider boundary")
}

func TestWebhookRejectsMissingOrigin(t *testing.T) {
	router, _ := newTestRouter(t)

	form := validForm()
	form.Del("From")

	rec := postForm(t, router, "/webhook", form)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookAcceptsMissingRecordingSID(t *testing.T) {
	router, submitter := newTestRouter(t)

	handle := mocks.NewMockResultHandle(gomock.NewController(t))
	handle.EXPECT().ID().Return("job-2").AnyTimes()
	submitter.EXPECT().
		SubmitVoiceMessage(gomock.Any(), gomock.Any()).
		Return(handle, nil)

	form := validForm()
	form.Del("RecordingSid")

	rec := postForm(t, router, "/webhook", form)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookReportsEnqueueFailure(t *testing.T) {
	router, submitter := newTestRouter(t)

	submitter.EXPECT().
		SubmitVoiceMessage(gomock.Any(), gomock.Any()).
		Return(nil, assert.AnError)

	rec := postForm(t, router, "/webhook", validForm())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Body.String(), "internal errors must not cross the provider boundary")
}

func TestWebhookSyncWaitsForResult(t *testing.T) {
	router, submitter := newTestRouter(t)

	handle := mocks.NewMockResultHandle(gomock.NewController(t))
	handle.EXPECT().ID().Return("job-3").AnyTimes()
	handle.EXPECT().Wait(gomock.Any(), time.Second).Return("Hi, how can I help?", nil)
	submitter.EXPECT().SubmitVoiceMessage(gomock.Any(), gomock.Any()).Return(handle, nil)

	rec := postForm(t, router, "/webhook/sync", validForm())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookSyncStillAcknowledgesOnTimeout(t *testing.T) {
	router, submitter := newTestRouter(t)

	handle := mocks.NewMockResultHandle(gomock.NewController(t))
	handle.EXPECT().ID().Return("job-4").AnyTimes()
	handle.EXPECT().Wait(gomock.Any(), time.Second).Return("", queue.ErrWaitTimeout)
	submitter.EXPECT().SubmitVoiceMessage(gomock.Any(), gomock.Any()).Return(handle, nil)

	rec := postForm(t, router, "/webhook/sync", validForm())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookSyncStillAcknowledgesOnJobFailure(t *testing.T) {
	router, submitter := newTestRouter(t)

	handle := mocks.NewMockResultHandle(gomock.NewController(t))
	handle.EXPECT().ID().Return("job-5").AnyTimes()
	handle.EXPECT().Wait(gomock.Any(), time.Second).
		Return("", &queue.JobFailedError{JobID: "job-5", Message: "transcription failed"})
	submitter.EXPECT().SubmitVoiceMessage(gomock.Any(), gomock.Any()).Return(handle, nil)

	rec := postForm(t, router, "/webhook/sync", validForm())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookRejectsNonPost(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodHead, "/healthz", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}
