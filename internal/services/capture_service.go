package services

import (
	"context"
	"sync"
	"time"

	"repairlog/internal/capture"
	"repairlog/internal/config"
	"repairlog/internal/models"
	"repairlog/internal/observability"
	contextutils "repairlog/internal/utils"

	"github.com/google/uuid"
)

// ResultSink receives the normalized record when a capture completes.
type ResultSink interface {
	SubmitDraft(ctx context.Context, draft capture.Draft) (*models.RepairResult, error)
}

// EventRecorder records the outcome event at the start of a capture.
type EventRecorder interface {
	RecordEvent(ctx context.Context, productID int, outcome models.RepairOutcome) (*models.RepairEvent, error)
}

// ResultNotifier announces a stored record after a capture completes. The
// record is already persisted when it runs; failures must not surface to the
// client.
type ResultNotifier interface {
	NotifyRepairResultStored(ctx context.Context, record *models.RepairResult, product *models.Product) error
}

// captureSession binds a workflow to its token and expiry.
type captureSession struct {
	token     string
	workflow  *capture.Workflow
	createdAt time.Time
	expiresAt time.Time
}

// SessionView is the client-facing snapshot of a capture session. The step
// descriptor tells any client how to play the current wizard step.
type SessionView struct {
	Token     string                  `json:"token"`
	ProductID int                     `json:"product_id"`
	Outcome   string                  `json:"outcome"`
	State     string                  `json:"state"`
	Step      *capture.StepDescriptor `json:"step,omitempty"`
	Draft     capture.Draft           `json:"draft"`
	ExpiresAt time.Time               `json:"expires_at"`
}

// CaptureService owns the active capture sessions. Each session wraps one
// workflow; the mutex serializes all access so the workflows themselves stay
// lock-free. Tokens of sessions that ended or expired are remembered for one
// TTL so a late request can be told its session is stale rather than merely
// unknown.
type CaptureService struct {
	mu       sync.Mutex
	sessions map[string]*captureSession
	ended    map[string]time.Time

	sink     ResultSink
	events   EventRecorder
	notifier ResultNotifier
	ttl      time.Duration
	logger   *observability.Logger
	now      func() time.Time
}

// NewCaptureService creates a new CaptureService instance. notifier may be
// nil when nothing should be announced on completion.
func NewCaptureService(sink ResultSink, events EventRecorder, notifier ResultNotifier, ttl time.Duration, logger *observability.Logger) *CaptureService {
	if sink == nil {
		panic("NewCaptureService: sink is nil")
	}
	if events == nil {
		panic("NewCaptureService: events is nil")
	}
	if logger == nil {
		panic("NewCaptureService: logger is nil")
	}
	if ttl <= 0 {
		panic("NewCaptureService: ttl must be positive")
	}
	return &CaptureService{
		sessions: make(map[string]*captureSession),
		ended:    make(map[string]time.Time),
		sink:     sink,
		events:   events,
		notifier: notifier,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// StartSession begins a capture for a product and outcome, returning the
// first wizard step. The outcome event is recorded immediately so abandoned
// captures still count.
func (s *CaptureService) StartSession(ctx context.Context, productID int, outcome models.RepairOutcome) (result0 *SessionView, err error) {
	ctx, span := observability.TraceCaptureFunction(ctx, "start_session",
		observability.AttributeProductID(productID),
		observability.AttributeOutcome(string(outcome)),
	)
	defer observability.FinishSpan(span, &err)

	workflow, err := capture.Start(productID, outcome)
	if err != nil {
		return nil, err
	}

	// The early event fires only for repaired outcomes, before the wizard
	// completes. It is transient feedback, separate from the stored result.
	if outcome == models.OutcomeRepaired {
		if _, err := s.events.RecordEvent(ctx, productID, outcome); err != nil {
			// The capture itself is more important than the tally
			s.logger.Warn(ctx, "Failed to record repair event", map[string]interface{}{
				"product_id": productID,
				"outcome":    string(outcome),
				"error":      err.Error(),
			})
		}
	}

	now := s.now()
	session := &captureSession{
		token:     uuid.NewString(),
		workflow:  workflow,
		createdAt: now,
		expiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.purgeExpiredLocked(now)
	s.sessions[session.token] = session
	s.mu.Unlock()

	s.logger.Info(ctx, "Capture session started", map[string]interface{}{
		"session_token": session.token,
		"product_id":    productID,
		"outcome":       string(outcome),
	})
	return s.viewOf(session), nil
}

// GetSession returns the current snapshot of a session.
func (s *CaptureService) GetSession(ctx context.Context, token string) (result0 *SessionView, err error) {
	_, span := observability.TraceCaptureFunction(ctx, "get_session",
		observability.AttributeSessionToken(token),
	)
	defer observability.FinishSpan(span, &err)

	s.mu.Lock()
	defer s.mu.Unlock()
	session, err := s.lookupLocked(token)
	if err != nil {
		return nil, err
	}
	return s.viewOf(session), nil
}

// ApplySelection applies a step's selection to a session and advances it.
// The session's in-flight flag is held for the duration so a step cannot be
// applied twice concurrently.
func (s *CaptureService) ApplySelection(ctx context.Context, token string, selection capture.Selection) (result0 *SessionView, err error) {
	ctx, span := observability.TraceCaptureFunction(ctx, "apply_selection",
		observability.AttributeSessionToken(token),
	)
	defer observability.FinishSpan(span, &err)

	s.mu.Lock()
	defer s.mu.Unlock()
	session, err := s.lookupLocked(token)
	if err != nil {
		return nil, err
	}

	if err := session.workflow.BeginStep(); err != nil {
		return nil, err
	}
	defer session.workflow.EndStep()

	if err := session.workflow.ApplySelection(selection); err != nil {
		return nil, err
	}
	span.SetAttributes(observability.AttributeWorkflowState(string(session.workflow.State)))
	return s.viewOf(session), nil
}

// SubmitExtras applies the free-form extras, normalizes the draft and hands
// it to the sink. On sink failure the session is kept in its current state
// so the client can retry; on success the session ends.
func (s *CaptureService) SubmitExtras(ctx context.Context, token string, extras capture.Extras) (result0 *models.RepairResult, err error) {
	ctx, span := observability.TraceCaptureFunction(ctx, "submit_extras",
		observability.AttributeSessionToken(token),
	)
	defer observability.FinishSpan(span, &err)

	s.mu.Lock()
	session, err := s.lookupLocked(token)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := session.workflow.BeginStep(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	normalized, err := session.workflow.ApplyExtras(extras, s.now())
	if err != nil {
		session.workflow.EndStep()
		s.mu.Unlock()
		return nil, err
	}
	// Submission happens outside the lock; the pending flag keeps this
	// session from being stepped concurrently in the meantime.
	s.mu.Unlock()

	record, submitErr := s.sink.SubmitDraft(ctx, normalized)

	s.mu.Lock()
	defer s.mu.Unlock()
	session.workflow.EndStep()
	if submitErr != nil {
		s.logger.Error(ctx, "Repair result submission failed, session kept for retry", submitErr, map[string]interface{}{
			"session_token": token,
		})
		return nil, contextutils.WrapError(submitErr, "submission failed")
	}

	session.workflow.Complete()
	s.endLocked(token)
	s.logger.Info(ctx, "Capture session completed", map[string]interface{}{
		"session_token":    token,
		"repair_result_id": record.ID,
	})
	s.notifyStored(ctx, record)
	return record, nil
}

// notifyStored announces the stored record without blocking the capture
// response. The record is already persisted, so a notification failure is
// only logged.
func (s *CaptureService) notifyStored(ctx context.Context, record *models.RepairResult) {
	if s.notifier == nil {
		return
	}
	go func() {
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.DefaultHTTPTimeout)
		defer cancel()
		if err := s.notifier.NotifyRepairResultStored(notifyCtx, record, nil); err != nil {
			s.logger.Warn(notifyCtx, "Capture completion notification failed", map[string]interface{}{
				"repair_result_id": record.ID,
				"error":            err.Error(),
			})
		}
	}()
}

// Cancel discards a session. The workflow resets so nothing from the
// abandoned capture can leak into a later one. A session with a step in
// flight cannot be cancelled; the submission may already be persisting.
func (s *CaptureService) Cancel(ctx context.Context, token string) (err error) {
	_, span := observability.TraceCaptureFunction(ctx, "cancel_session",
		observability.AttributeSessionToken(token),
	)
	defer observability.FinishSpan(span, &err)

	s.mu.Lock()
	defer s.mu.Unlock()
	session, err := s.lookupLocked(token)
	if err != nil {
		return err
	}
	if session.workflow.Pending() {
		return contextutils.WrapErrorf(contextutils.ErrSessionPending, "session %s has a step in flight", token)
	}
	session.workflow.Cancel()
	s.endLocked(token)

	s.logger.Info(ctx, "Capture session cancelled", map[string]interface{}{
		"session_token": token,
	})
	return nil
}

// ActiveSessions reports how many sessions are currently live.
func (s *CaptureService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpiredLocked(s.now())
	return len(s.sessions)
}

// lookupLocked resolves a token, distinguishing sessions that once existed
// from tokens that never did.
func (s *CaptureService) lookupLocked(token string) (*captureSession, error) {
	now := s.now()
	s.purgeExpiredLocked(now)

	if session, ok := s.sessions[token]; ok {
		return session, nil
	}
	if _, wasEnded := s.ended[token]; wasEnded {
		return nil, contextutils.WrapErrorf(contextutils.ErrStaleSession, "session %s has ended", token)
	}
	return nil, contextutils.WrapErrorf(contextutils.ErrSessionNotFound, "session %s not found", token)
}

// endLocked removes a session and remembers its token as stale for one TTL.
func (s *CaptureService) endLocked(token string) {
	delete(s.sessions, token)
	s.ended[token] = s.now().Add(s.ttl)
}

func (s *CaptureService) purgeExpiredLocked(now time.Time) {
	for token, session := range s.sessions {
		if now.After(session.expiresAt) {
			session.workflow.Cancel()
			delete(s.sessions, token)
			s.ended[token] = now.Add(s.ttl)
		}
	}
	for token, staleUntil := range s.ended {
		if now.After(staleUntil) {
			delete(s.ended, token)
		}
	}
}

func (s *CaptureService) viewOf(session *captureSession) *SessionView {
	view := &SessionView{
		Token:     session.token,
		ProductID: session.workflow.ProductID,
		Outcome:   string(session.workflow.Outcome),
		State:     string(session.workflow.State),
		Draft:     session.workflow.Draft.Clone(),
		ExpiresAt: session.expiresAt,
	}
	if descriptor, ok := session.workflow.Step(); ok {
		view.Step = &descriptor
	}
	return view
}
