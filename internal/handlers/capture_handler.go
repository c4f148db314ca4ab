package handlers

import (
	"net/http"

	"repairlog/internal/capture"
	"repairlog/internal/config"
	"repairlog/internal/models"
	"repairlog/internal/observability"
	"repairlog/internal/services"

	"github.com/gin-gonic/gin"
)

// CaptureHandler exposes the capture wizard over HTTP. Each response carries
// the session's current step descriptor so any client can play the selector
// role without knowing the branching rules.
type CaptureHandler struct {
	captures *services.CaptureService
	cfg      *config.Config
	logger   *observability.Logger
}

// NewCaptureHandler creates a new CaptureHandler instance.
func NewCaptureHandler(captures *services.CaptureService, cfg *config.Config, logger *observability.Logger) *CaptureHandler {
	return &CaptureHandler{captures: captures, cfg: cfg, logger: logger}
}

// StartSession handles POST /v1/capture/sessions
func (h *CaptureHandler) StartSession(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "start_capture_session")
	defer span.End()

	var req struct {
		ProductID int    `json:"product_id" binding:"required"`
		Outcome   string `json:"outcome" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request body", nil, err.Error())
		return
	}

	view, err := h.captures.StartSession(ctx, req.ProductID, models.RepairOutcome(req.Outcome))
	if err != nil {
		HandleAppError(c, err)
		return
	}

	// Cookie binding is a convenience for browser clients; API clients carry
	// the token themselves
	if err := SetCaptureTokenInSession(c, view.Token); err != nil {
		h.logger.Warn(ctx, "Failed to bind capture token to cookie session", map[string]interface{}{
			"error": err.Error(),
		})
	}

	c.JSON(http.StatusCreated, view)
}

// GetCurrentSession handles GET /v1/capture/sessions/current, resolving the
// session from the cookie binding.
func (h *CaptureHandler) GetCurrentSession(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_current_capture_session")
	defer span.End()

	token, ok := GetCaptureTokenFromSession(c)
	if !ok {
		StandardizeHTTPError(c, http.StatusNotFound, "No capture in progress", "no capture session token bound to this cookie session")
		return
	}

	view, err := h.captures.GetSession(ctx, token)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetSession handles GET /v1/capture/sessions/:token
func (h *CaptureHandler) GetSession(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_capture_session")
	defer span.End()

	view, err := h.captures.GetSession(ctx, c.Param("token"))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ApplySelection handles POST /v1/capture/sessions/:token/selection
func (h *CaptureHandler) ApplySelection(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "apply_capture_selection")
	defer span.End()

	var req capture.Selection
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request body", nil, err.Error())
		return
	}

	view, err := h.captures.ApplySelection(ctx, c.Param("token"), req)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Submit handles POST /v1/capture/sessions/:token/submit. On sink failure
// the session survives in its final step, so the client may simply retry.
func (h *CaptureHandler) Submit(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "submit_capture_session")
	defer span.End()

	var req capture.Extras
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request body", nil, err.Error())
		return
	}

	record, err := h.captures.SubmitExtras(ctx, c.Param("token"), req)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	if err := ClearCaptureTokenFromSession(c); err != nil {
		h.logger.Warn(ctx, "Failed to clear capture token from cookie session", map[string]interface{}{
			"error": err.Error(),
		})
	}

	c.JSON(http.StatusCreated, record)
}

// Cancel handles DELETE /v1/capture/sessions/:token
func (h *CaptureHandler) Cancel(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "cancel_capture_session")
	defer span.End()

	if err := h.captures.Cancel(ctx, c.Param("token")); err != nil {
		HandleAppError(c, err)
		return
	}

	if err := ClearCaptureTokenFromSession(c); err != nil {
		h.logger.Warn(ctx, "Failed to clear capture token from cookie session", map[string]interface{}{
			"error": err.Error(),
		})
	}

	c.Status(http.StatusNoContent)
}
