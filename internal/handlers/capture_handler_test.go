package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"repairlog/internal/capture"
	"repairlog/internal/config"
	"repairlog/internal/models"
	"repairlog/internal/observability"
	"repairlog/internal/services"
	contextutils "repairlog/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubResultSink struct {
	submitted []capture.Draft
	failWith  error
	nextID    int
}

func (s *stubResultSink) SubmitDraft(_ context.Context, draft capture.Draft) (*models.RepairResult, error) {
	if s.failWith != nil {
		err := s.failWith
		s.failWith = nil
		return nil, err
	}
	s.submitted = append(s.submitted, draft)
	s.nextID++
	return &models.RepairResult{ID: s.nextID, ProductID: draft["product_id"].(int)}, nil
}

type stubEventRecorder struct {
	events []models.RepairEvent
}

func (s *stubEventRecorder) RecordEvent(_ context.Context, productID int, outcome models.RepairOutcome) (*models.RepairEvent, error) {
	event := models.RepairEvent{ID: len(s.events) + 1, ProductID: productID, Outcome: outcome}
	s.events = append(s.events, event)
	return &event, nil
}

func newCaptureTestRouter(t *testing.T, sink *stubResultSink) *gin.Engine {
	t.Helper()

	logger := observability.NewLogger(nil)
	captureService := services.NewCaptureService(sink, &stubEventRecorder{}, nil, 2*time.Hour, logger)
	cfg := &config.Config{}
	handler := NewCaptureHandler(captureService, cfg, logger)

	router := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	router.Use(sessions.Sessions(config.SessionName, store))

	router.POST("/v1/capture/sessions", handler.StartSession)
	router.GET("/v1/capture/sessions/current", handler.GetCurrentSession)
	router.GET("/v1/capture/sessions/:token", handler.GetSession)
	router.POST("/v1/capture/sessions/:token/selection", handler.ApplySelection)
	router.POST("/v1/capture/sessions/:token/submit", handler.Submit)
	router.DELETE("/v1/capture/sessions/:token", handler.Cancel)

	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeSessionView(t *testing.T, w *httptest.ResponseRecorder) services.SessionView {
	t.Helper()

	var view services.SessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	return view
}

func TestCaptureHandler_NotRepairedLifecycle(t *testing.T) {
	sink := &stubResultSink{}
	router := newCaptureTestRouter(t, sink)

	w := doJSON(t, router, http.MethodPost, "/v1/capture/sessions", gin.H{
		"product_id": 4,
		"outcome":    "N",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	view := decodeSessionView(t, w)
	require.NotEmpty(t, view.Token)
	assert.Equal(t, string(capture.StateSelectingFeatures), view.State)
	require.NotNil(t, view.Step)
	assert.Equal(t, "/v1/features", view.Step.CatalogueEndpoint)

	base := "/v1/capture/sessions/" + view.Token

	w = doJSON(t, router, http.MethodPost, base+"/selection", capture.Selection{IDs: []int{1, 2}})
	require.Equal(t, http.StatusOK, w.Code)
	view = decodeSessionView(t, w)
	assert.Equal(t, string(capture.StateSelectingFault), view.State)

	w = doJSON(t, router, http.MethodPost, base+"/selection", capture.Selection{IDs: []int{7}})
	require.Equal(t, http.StatusOK, w.Code)
	view = decodeSessionView(t, w)
	// Not-repaired outcome skips the repair action step
	assert.Equal(t, string(capture.StateSelectingReasonsNotRepaired), view.State)

	w = doJSON(t, router, http.MethodPost, base+"/selection", capture.Selection{IDs: []int{3}})
	require.Equal(t, http.StatusOK, w.Code)
	view = decodeSessionView(t, w)
	assert.Equal(t, string(capture.StateCollectingExtras), view.State)

	w = doJSON(t, router, http.MethodPost, base+"/submit", capture.Extras{
		Notes:          "corrosion on main board",
		TimeToDiagnose: "0:20",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, sink.submitted, 1)
	assert.Equal(t, "N", sink.submitted[0]["type"])

	// The session is gone once the record is stored
	w = doJSON(t, router, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Contains(t, w.Body.String(), "STALE_SESSION")
}

func TestCaptureHandler_UnknownToken(t *testing.T) {
	router := newCaptureTestRouter(t, &stubResultSink{})

	w := doJSON(t, router, http.MethodGet, "/v1/capture/sessions/never-issued", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "SESSION_NOT_FOUND")
}

func TestCaptureHandler_SubmitBeforeFinalStep(t *testing.T) {
	router := newCaptureTestRouter(t, &stubResultSink{})

	w := doJSON(t, router, http.MethodPost, "/v1/capture/sessions", gin.H{
		"product_id": 4,
		"outcome":    "R",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	view := decodeSessionView(t, w)

	w = doJSON(t, router, http.MethodPost, "/v1/capture/sessions/"+view.Token+"/submit", capture.Extras{})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TRANSITION")
}

func TestCaptureHandler_SubmissionFailureAllowsRetry(t *testing.T) {
	sink := &stubResultSink{failWith: contextutils.WrapError(contextutils.ErrSubmissionFailed, "store unavailable")}
	router := newCaptureTestRouter(t, sink)

	w := doJSON(t, router, http.MethodPost, "/v1/capture/sessions", gin.H{
		"product_id": 9,
		"outcome":    "R",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	view := decodeSessionView(t, w)
	base := "/v1/capture/sessions/" + view.Token

	for _, ids := range [][]int{{1}, {2}, {5}} {
		w = doJSON(t, router, http.MethodPost, base+"/selection", capture.Selection{IDs: ids})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w = doJSON(t, router, http.MethodPost, base+"/submit", capture.Extras{Notes: "swapped fuse"})
	require.Equal(t, http.StatusInternalServerError, w.Code)

	// The session survives in its final step so the client can retry
	w = doJSON(t, router, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view = decodeSessionView(t, w)
	assert.Equal(t, string(capture.StateCollectingExtras), view.State)

	w = doJSON(t, router, http.MethodPost, base+"/submit", capture.Extras{Notes: "swapped fuse"})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, sink.submitted, 1)
}

func TestCaptureHandler_Cancel(t *testing.T) {
	router := newCaptureTestRouter(t, &stubResultSink{})

	w := doJSON(t, router, http.MethodPost, "/v1/capture/sessions", gin.H{
		"product_id": 2,
		"outcome":    "P",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	view := decodeSessionView(t, w)
	base := "/v1/capture/sessions/" + view.Token

	w = doJSON(t, router, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusGone, w.Code)
}

func TestCaptureHandler_CookieBoundCurrentSession(t *testing.T) {
	router := newCaptureTestRouter(t, &stubResultSink{})

	w := doJSON(t, router, http.MethodPost, "/v1/capture/sessions", gin.H{
		"product_id": 3,
		"outcome":    "R",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	view := decodeSessionView(t, w)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/v1/capture/sessions/current", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, view.Token, decodeSessionView(t, w).Token)
}

func TestCaptureHandler_CurrentSessionWithoutCookie(t *testing.T) {
	router := newCaptureTestRouter(t, &stubResultSink{})

	w := doJSON(t, router, http.MethodGet, "/v1/capture/sessions/current", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
