package handlers

import (
	"net/http"

	"repairlog/internal/config"
	"repairlog/internal/models"
	"repairlog/internal/observability"
	"repairlog/internal/services"

	"github.com/gin-gonic/gin"
)

// EventsHandler serves the repair event log and its outcome tally.
type EventsHandler struct {
	events *services.EventService
	cfg    *config.Config
	logger *observability.Logger
}

// NewEventsHandler creates a new EventsHandler instance.
func NewEventsHandler(events *services.EventService, cfg *config.Config, logger *observability.Logger) *EventsHandler {
	return &EventsHandler{events: events, cfg: cfg, logger: logger}
}

// ListEvents handles GET /v1/events?product_id=
func (h *EventsHandler) ListEvents(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_events")
	defer span.End()

	events, err := h.events.ListEvents(ctx, ParseIntQuery(c, "product_id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// CreateEvent handles POST /v1/events, recording an outcome that happened
// outside a capture session.
func (h *EventsHandler) CreateEvent(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_event")
	defer span.End()

	var req struct {
		ProductID int    `json:"product_id" binding:"required"`
		Outcome   string `json:"outcome" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request body", nil, err.Error())
		return
	}

	event, err := h.events.RecordEvent(ctx, req.ProductID, models.RepairOutcome(req.Outcome))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

// EventSummary handles GET /v1/events/summary?product_id=
func (h *EventsHandler) EventSummary(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "event_summary")
	defer span.End()

	counts, err := h.events.CountEventsByOutcome(ctx, ParseIntQuery(c, "product_id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts})
}
