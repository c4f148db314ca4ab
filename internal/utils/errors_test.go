package contextutils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorError(t *testing.T) {
	err := &AppError{Code: ErrorCodeSubmissionFailed, Severity: SeverityError, Message: "Failed to store repair record"}
	assert.Equal(t, "SUBMISSION_FAILED: Failed to store repair record", err.Error())

	err.Details = "insert repair_results: connection refused"
	assert.Equal(t, "SUBMISSION_FAILED: Failed to store repair record - insert repair_results: connection refused", err.Error())
}

func TestWrapErrorPreservesCode(t *testing.T) {
	wrapped := WrapError(ErrStaleSession, "selection arrived after cancel")
	var appErr *AppError
	assert.True(t, AsError(wrapped, &appErr))
	assert.Equal(t, ErrorCodeStaleSession, appErr.Code)
	assert.Equal(t, SeverityInfo, appErr.Severity)
	assert.Equal(t, "selection arrived after cancel", appErr.Message)
	assert.True(t, errors.Is(wrapped, ErrStaleSession))
}

func TestWrapErrorPlainErrorBecomesInternal(t *testing.T) {
	wrapped := WrapError(errors.New("boom"), "loading features")
	assert.Equal(t, ErrorCodeInternalError, GetErrorCode(wrapped))
	assert.Equal(t, SeverityError, GetErrorSeverity(wrapped))
}

func TestWrapErrorNil(t *testing.T) {
	assert.NoError(t, WrapError(nil, "anything"))
	assert.NoError(t, WrapErrorf(nil, "anything %d", 1))
}

func TestWrapErrorfWithWVerb(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	wrapped := WrapErrorf(cause, "submitting record: %w", cause)
	assert.ErrorContains(t, wrapped, "submitting record")
	assert.Equal(t, ErrorCodeInternalError, GetErrorCode(wrapped))
}

func TestIsError(t *testing.T) {
	err := WrapErrorf(ErrInvalidTransition, "state %s rejects selection", "Idle")
	assert.True(t, IsError(err, ErrInvalidTransition))
	assert.False(t, IsError(err, ErrSessionPending))
	assert.False(t, IsError(fmt.Errorf("plain"), ErrInvalidTransition))
}

func TestToJSON(t *testing.T) {
	err := NewAppErrorWithCause(ErrorCodeCatalogueLoadFailed, SeverityError, "Failed to load catalogue options", "faults query", errors.New("timeout"))
	out := err.ToJSON()
	assert.Equal(t, "CATALOGUE_LOAD_FAILED", out["code"])
	assert.Equal(t, "Failed to load catalogue options", out["message"])
	assert.Equal(t, "faults query", out["details"])
	assert.Equal(t, "timeout", out["cause"])

	// Info severity hides the cause
	info := NewAppErrorWithCause(ErrorCodeStaleSession, SeverityInfo, "Capture session is no longer active", "", errors.New("gone"))
	_, hasCause := info.ToJSON()["cause"]
	assert.False(t, hasCause)
}

func TestSessionTokenContext(t *testing.T) {
	ctx := WithSessionToken(t.Context(), "tok-123")
	assert.Equal(t, "tok-123", GetSessionTokenFromContext(ctx))
	assert.Equal(t, "", GetSessionTokenFromContext(t.Context()))
}
