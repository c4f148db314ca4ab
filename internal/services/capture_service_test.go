package services

import (
	"context"
	"testing"
	"time"

	"repairlog/internal/capture"
	"repairlog/internal/models"
	"repairlog/internal/observability"
	contextutils "repairlog/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSink struct {
	submitted []capture.Draft
	failWith  error
	nextID    int
}

func (s *stubSink) SubmitDraft(_ context.Context, draft capture.Draft) (*models.RepairResult, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	s.submitted = append(s.submitted, draft)
	s.nextID++
	return &models.RepairResult{ID: s.nextID, ProductID: 5, Type: "P"}, nil
}

type stubEvents struct {
	recorded []models.RepairEvent
	failWith error
}

func (s *stubEvents) RecordEvent(_ context.Context, productID int, outcome models.RepairOutcome) (*models.RepairEvent, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	event := models.RepairEvent{ID: len(s.recorded) + 1, ProductID: productID, Outcome: outcome}
	s.recorded = append(s.recorded, event)
	return &event, nil
}

type stubNotifier struct {
	notified chan *models.RepairResult
}

func (s *stubNotifier) NotifyRepairResultStored(_ context.Context, record *models.RepairResult, _ *models.Product) error {
	s.notified <- record
	return nil
}

func newTestCaptureService(sink *stubSink, events *stubEvents) *CaptureService {
	return NewCaptureService(sink, events, nil, 2*time.Hour, observability.NewLogger(nil))
}

func TestStartSessionRecordsEventAndReturnsFirstStep(t *testing.T) {
	sink := &stubSink{}
	events := &stubEvents{}
	svc := newTestCaptureService(sink, events)

	view, err := svc.StartSession(t.Context(), 5, models.OutcomeRepaired)
	require.NoError(t, err)

	assert.NotEmpty(t, view.Token)
	assert.Equal(t, string(capture.StateSelectingFeatures), view.State)
	require.NotNil(t, view.Step)
	assert.Equal(t, "/v1/features", view.Step.CatalogueEndpoint)
	assert.True(t, view.Step.PhotoCapture)

	require.Len(t, events.recorded, 1)
	assert.Equal(t, 5, events.recorded[0].ProductID)
	assert.Equal(t, models.OutcomeRepaired, events.recorded[0].Outcome)
}

func TestStartSessionSkipsEventForOtherOutcomes(t *testing.T) {
	events := &stubEvents{}
	svc := newTestCaptureService(&stubSink{}, events)

	_, err := svc.StartSession(t.Context(), 5, models.OutcomeNotRepaired)
	require.NoError(t, err)
	assert.Empty(t, events.recorded)
}

func TestStartSessionRejectsInvalidOutcome(t *testing.T) {
	svc := newTestCaptureService(&stubSink{}, &stubEvents{})

	_, err := svc.StartSession(t.Context(), 5, models.RepairOutcome("X"))
	assert.Error(t, err)
	assert.Equal(t, 0, svc.ActiveSessions())
}

func TestStartSessionSurvivesEventFailure(t *testing.T) {
	events := &stubEvents{failWith: assert.AnError}
	svc := newTestCaptureService(&stubSink{}, events)

	view, err := svc.StartSession(t.Context(), 5, models.OutcomeRepaired)
	require.NoError(t, err)
	assert.NotEmpty(t, view.Token)
}

func TestFullCaptureLifecycle(t *testing.T) {
	sink := &stubSink{}
	svc := newTestCaptureService(sink, &stubEvents{})
	ctx := t.Context()

	view, err := svc.StartSession(ctx, 5, models.OutcomePartiallyRepaired)
	require.NoError(t, err)
	token := view.Token

	view, err = svc.ApplySelection(ctx, token, capture.Selection{IDs: []int{10, 11}, PhotoIDs: []int{3}})
	require.NoError(t, err)
	assert.Equal(t, string(capture.StateSelectingFault), view.State)

	view, err = svc.ApplySelection(ctx, token, capture.Selection{IDs: []int{7}})
	require.NoError(t, err)
	assert.Equal(t, string(capture.StateSelectingRepairAction), view.State)

	view, err = svc.ApplySelection(ctx, token, capture.Selection{IDs: []int{20}})
	require.NoError(t, err)
	assert.Equal(t, string(capture.StateSelectingReasonsNotRepaired), view.State)

	view, err = svc.ApplySelection(ctx, token, capture.Selection{IDs: []int{30}})
	require.NoError(t, err)
	assert.Equal(t, string(capture.StateCollectingExtras), view.State)
	assert.Empty(t, view.Step.CatalogueEndpoint)

	record, err := svc.SubmitExtras(ctx, token, capture.Extras{Notes: "ok"})
	require.NoError(t, err)
	assert.NotZero(t, record.ID)

	require.Len(t, sink.submitted, 1)
	draft := sink.submitted[0]
	assert.Equal(t, "P", draft["type"])
	assert.Equal(t, 7, draft["fault_diagnosed"])
	assert.Equal(t, []int{10, 11}, draft["fault_features"])
	assert.Equal(t, []int{3}, draft["photo_id"])

	// The session ended; the token is now stale, not unknown
	_, err = svc.GetSession(ctx, token)
	assert.True(t, contextutils.IsError(err, contextutils.ErrStaleSession))
	assert.Equal(t, 0, svc.ActiveSessions())
}

func TestCompletedCaptureNotifies(t *testing.T) {
	sink := &stubSink{}
	notifier := &stubNotifier{notified: make(chan *models.RepairResult, 1)}
	svc := NewCaptureService(sink, &stubEvents{}, notifier, 2*time.Hour, observability.NewLogger(nil))
	ctx := t.Context()

	view, err := svc.StartSession(ctx, 5, models.OutcomeRepaired)
	require.NoError(t, err)
	token := view.Token

	for i := 0; i < 3; i++ {
		_, err = svc.ApplySelection(ctx, token, capture.Selection{IDs: []int{i + 1}})
		require.NoError(t, err)
	}

	record, err := svc.SubmitExtras(ctx, token, capture.Extras{Notes: "done"})
	require.NoError(t, err)

	select {
	case notified := <-notifier.notified:
		assert.Equal(t, record.ID, notified.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("completed capture did not notify")
	}
}

func TestFailedSubmissionDoesNotNotify(t *testing.T) {
	sink := &stubSink{failWith: assert.AnError}
	notifier := &stubNotifier{notified: make(chan *models.RepairResult, 1)}
	svc := NewCaptureService(sink, &stubEvents{}, notifier, 2*time.Hour, observability.NewLogger(nil))
	ctx := t.Context()

	view, err := svc.StartSession(ctx, 5, models.OutcomeRepaired)
	require.NoError(t, err)
	token := view.Token

	for i := 0; i < 3; i++ {
		_, err = svc.ApplySelection(ctx, token, capture.Selection{IDs: []int{i + 1}})
		require.NoError(t, err)
	}

	_, err = svc.SubmitExtras(ctx, token, capture.Extras{})
	require.Error(t, err)
	assert.Empty(t, notifier.notified)
}

func TestUnknownTokenIsNotFound(t *testing.T) {
	svc := newTestCaptureService(&stubSink{}, &stubEvents{})

	_, err := svc.GetSession(t.Context(), "no-such-token")
	assert.True(t, contextutils.IsError(err, contextutils.ErrSessionNotFound))
}

func TestSubmissionFailureKeepsSessionForRetry(t *testing.T) {
	sink := &stubSink{failWith: assert.AnError}
	svc := newTestCaptureService(sink, &stubEvents{})
	ctx := t.Context()

	view, err := svc.StartSession(ctx, 5, models.OutcomeRepaired)
	require.NoError(t, err)
	token := view.Token

	_, err = svc.ApplySelection(ctx, token, capture.Selection{IDs: []int{1}})
	require.NoError(t, err)
	_, err = svc.ApplySelection(ctx, token, capture.Selection{IDs: []int{2}})
	require.NoError(t, err)
	_, err = svc.ApplySelection(ctx, token, capture.Selection{IDs: []int{3}})
	require.NoError(t, err)

	_, err = svc.SubmitExtras(ctx, token, capture.Extras{Notes: "first try"})
	require.Error(t, err)

	// Session must survive the failed submission in its final step
	view, err = svc.GetSession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, string(capture.StateCollectingExtras), view.State)

	sink.failWith = nil
	record, err := svc.SubmitExtras(ctx, token, capture.Extras{Notes: "second try"})
	require.NoError(t, err)
	assert.NotZero(t, record.ID)
}

func TestCancelDiscardsSession(t *testing.T) {
	svc := newTestCaptureService(&stubSink{}, &stubEvents{})
	ctx := t.Context()

	view, err := svc.StartSession(ctx, 5, models.OutcomeRepaired)
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, view.Token))

	_, err = svc.GetSession(ctx, view.Token)
	assert.True(t, contextutils.IsError(err, contextutils.ErrStaleSession))
}

func TestCancelRefusedWhileStepInFlight(t *testing.T) {
	svc := newTestCaptureService(&stubSink{}, &stubEvents{})
	ctx := t.Context()

	view, err := svc.StartSession(ctx, 5, models.OutcomeRepaired)
	require.NoError(t, err)
	token := view.Token

	// Mark the step in flight the way a concurrent submit would
	svc.mu.Lock()
	session := svc.sessions[token]
	svc.mu.Unlock()
	require.NoError(t, session.workflow.BeginStep())

	err = svc.Cancel(ctx, token)
	assert.True(t, contextutils.IsError(err, contextutils.ErrSessionPending))

	// Once the step settles the session can be cancelled normally
	session.workflow.EndStep()
	require.NoError(t, svc.Cancel(ctx, token))
}

func TestCancelledSessionLeavesNoResidue(t *testing.T) {
	svc := newTestCaptureService(&stubSink{}, &stubEvents{})
	ctx := t.Context()

	view, err := svc.StartSession(ctx, 5, models.OutcomeRepaired)
	require.NoError(t, err)
	_, err = svc.ApplySelection(ctx, view.Token, capture.Selection{IDs: []int{1, 2}})
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, view.Token))

	fresh, err := svc.StartSession(ctx, 6, models.OutcomeNotRepaired)
	require.NoError(t, err)
	assert.Equal(t, capture.Draft{"product_id": 6}, fresh.Draft)
}

func TestExpiredSessionBecomesStale(t *testing.T) {
	svc := newTestCaptureService(&stubSink{}, &stubEvents{})
	ctx := t.Context()

	view, err := svc.StartSession(ctx, 5, models.OutcomeRepaired)
	require.NoError(t, err)

	base := time.Now()
	svc.now = func() time.Time { return base.Add(3 * time.Hour) }

	_, err = svc.GetSession(ctx, view.Token)
	assert.True(t, contextutils.IsError(err, contextutils.ErrStaleSession))
}

func TestSelectionRejectedAfterFinalStep(t *testing.T) {
	svc := newTestCaptureService(&stubSink{}, &stubEvents{})
	ctx := t.Context()

	view, err := svc.StartSession(ctx, 5, models.OutcomeRepaired)
	require.NoError(t, err)
	token := view.Token

	for i := 0; i < 3; i++ {
		_, err = svc.ApplySelection(ctx, token, capture.Selection{IDs: []int{i + 1}})
		require.NoError(t, err)
	}

	_, err = svc.ApplySelection(ctx, token, capture.Selection{IDs: []int{99}})
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidTransition))
}
