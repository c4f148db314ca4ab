package handlers

import (
	"context"
	"net/http"
	"strconv"

	"repairlog/internal/capture"
	"repairlog/internal/config"
	"repairlog/internal/models"
	"repairlog/internal/observability"
	"repairlog/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	defaultResultsPageSize = 20
	maxResultsPageSize     = 100
)

// ResultsHandler serves the stored repair results. The POST endpoint is the
// direct sink for clients that assemble a record themselves; the capture
// wizard reaches the same sink through its session submit.
type ResultsHandler struct {
	results       *services.RepairResultService
	notifications *services.NotificationService
	catalog       *services.CatalogService
	cfg           *config.Config
	logger        *observability.Logger
}

// NewResultsHandler creates a new ResultsHandler instance.
func NewResultsHandler(results *services.RepairResultService, notifications *services.NotificationService, catalog *services.CatalogService, cfg *config.Config, logger *observability.Logger) *ResultsHandler {
	return &ResultsHandler{results: results, notifications: notifications, catalog: catalog, cfg: cfg, logger: logger}
}

// CreateRepairResult handles POST /v1/repair-results
func (h *ResultsHandler) CreateRepairResult(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_repair_result")
	defer span.End()

	var draft capture.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		HandleValidationError(c, "request body", nil, err.Error())
		return
	}

	record, err := h.results.SubmitDraft(ctx, draft)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	h.notify(ctx, record)
	c.JSON(http.StatusCreated, record)
}

// notify sends the stored-record notification without blocking the response.
func (h *ResultsHandler) notify(ctx context.Context, record *models.RepairResult) {
	if h.notifications == nil || !h.notifications.IsEnabled() {
		return
	}

	go func() {
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.DefaultHTTPTimeout)
		defer cancel()

		product, err := h.catalog.GetProduct(notifyCtx, record.ProductID)
		if err != nil {
			product = nil
		}
		if err := h.notifications.NotifyRepairResultStored(notifyCtx, record, product); err != nil {
			h.logger.Warn(notifyCtx, "Repair result notification failed", map[string]interface{}{
				"repair_result_id": record.ID,
				"error":            err.Error(),
			})
		}
	}()
}

// GetRepairResult handles GET /v1/repair-results/:id
func (h *ResultsHandler) GetRepairResult(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_repair_result")
	defer span.End()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		HandleValidationError(c, "id", c.Param("id"), "must be an integer")
		return
	}

	record, err := h.results.GetRepairResult(ctx, id)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// ListRepairResults handles GET /v1/repair-results with optional
// product_id, fault_id and type filters plus pagination.
func (h *ResultsHandler) ListRepairResults(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_repair_results")
	defer span.End()

	resultType := c.Query("type")
	if resultType != "" && resultType != "R" && resultType != "P" && resultType != "N" {
		HandleValidationError(c, "type", resultType, "must be one of R, P, N")
		return
	}

	page, pageSize := ParsePagination(c, 1, defaultResultsPageSize, maxResultsPageSize)
	records, total, err := h.results.ListRepairResults(ctx,
		ParseIntQuery(c, "product_id"), ParseIntQuery(c, "fault_id"), resultType, page, pageSize)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	WritePaginated(c, "repair_results", records, page, pageSize, total)
}
