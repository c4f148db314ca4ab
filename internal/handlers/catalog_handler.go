package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"repairlog/internal/config"
	"repairlog/internal/models"
	"repairlog/internal/observability"
	"repairlog/internal/services"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the catalogue listings the wizard steps read from
// and the admin endpoints that maintain them.
type CatalogHandler struct {
	catalog *services.CatalogService
	matcher *services.MatcherService
	cfg     *config.Config
	logger  *observability.Logger
}

// NewCatalogHandler creates a new CatalogHandler instance.
func NewCatalogHandler(catalog *services.CatalogService, cfg *config.Config, logger *observability.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		matcher: services.NewMatcherService(logger),
		cfg:     cfg,
		logger:  logger,
	}
}

// ListProducts handles GET /v1/products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_products")
	defer span.End()

	products, err := h.catalog.ListProducts(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetProduct handles GET /v1/products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_product")
	defer span.End()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		HandleValidationError(c, "id", c.Param("id"), "must be an integer")
		return
	}

	product, err := h.catalog.GetProduct(ctx, id)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// CreateProduct handles POST /v1/products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_product")
	defer span.End()

	var req struct {
		Name          string `json:"name" binding:"required"`
		BarcodeSerial string `json:"barcode_serial"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request body", nil, err.Error())
		return
	}

	product := &models.Product{Name: req.Name}
	if req.BarcodeSerial != "" {
		product.BarcodeSerial = sql.NullString{String: req.BarcodeSerial, Valid: true}
	}

	created, err := h.catalog.CreateProduct(ctx, product)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListFeatures handles GET /v1/features?product_id=
func (h *CatalogHandler) ListFeatures(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_features")
	defer span.End()

	features, err := h.catalog.ListFeatures(ctx, ParseIntQuery(c, "product_id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"features": features})
}

// CreateFeature handles POST /v1/features
func (h *CatalogHandler) CreateFeature(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_feature")
	defer span.End()

	var req catalogEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request body", nil, err.Error())
		return
	}

	created, err := h.catalog.CreateFeature(ctx, &models.Feature{ProductID: req.ProductID, Name: req.Name, Description: nullableDescription(req.Description)})
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListFaults handles GET /v1/faults?product_id=
func (h *CatalogHandler) ListFaults(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_faults")
	defer span.End()

	faults, err := h.catalog.ListFaults(ctx, ParseIntQuery(c, "product_id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"faults": faults})
}

// CreateFault handles POST /v1/faults
func (h *CatalogHandler) CreateFault(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_fault")
	defer span.End()

	var req catalogEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request body", nil, err.Error())
		return
	}

	fault := &models.Fault{ProductID: req.ProductID, Name: req.Name, Description: nullableDescription(req.Description), FeatureIDs: req.FeatureIDs}
	created, err := h.catalog.CreateFault(ctx, fault)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// RankFaults handles GET /v1/faults/rank?feature_ids=1,2&product_id=
// An empty feature_ids list deliberately yields an empty ranking.
func (h *CatalogHandler) RankFaults(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "rank_faults")
	defer span.End()

	selected := ParseIntListQuery(c, "feature_ids")
	ranked, err := h.matcher.RankFaultsForProduct(ctx, h.catalog, ParseIntQuery(c, "product_id"), selected)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ranked_faults": ranked})
}

// ListRepairActions handles GET /v1/repair-actions?product_id=
func (h *CatalogHandler) ListRepairActions(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_repair_actions")
	defer span.End()

	actions, err := h.catalog.ListRepairActions(ctx, ParseIntQuery(c, "product_id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"repair_actions": actions})
}

// CreateRepairAction handles POST /v1/repair-actions
func (h *CatalogHandler) CreateRepairAction(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_repair_action")
	defer span.End()

	var req catalogEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request body", nil, err.Error())
		return
	}

	created, err := h.catalog.CreateRepairAction(ctx, &models.RepairAction{ProductID: req.ProductID, Name: req.Name, Description: nullableDescription(req.Description)})
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListReasonsNotRepaired handles GET /v1/reasons-not-repaired?product_id=
func (h *CatalogHandler) ListReasonsNotRepaired(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_reasons_not_repaired")
	defer span.End()

	reasons, err := h.catalog.ListReasonsNotRepaired(ctx, ParseIntQuery(c, "product_id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reasons_not_repaired": reasons})
}

// CreateReasonNotRepaired handles POST /v1/reasons-not-repaired
func (h *CatalogHandler) CreateReasonNotRepaired(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_reason_not_repaired")
	defer span.End()

	var req catalogEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request body", nil, err.Error())
		return
	}

	created, err := h.catalog.CreateReasonNotRepaired(ctx, &models.ReasonNotRepaired{ProductID: req.ProductID, Name: req.Name, Description: nullableDescription(req.Description)})
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateProduct handles PUT /v1/products/:id
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "update_product")
	defer span.End()

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Name          string `json:"name" binding:"required"`
		BarcodeSerial string `json:"barcode_serial"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request body", nil, err.Error())
		return
	}

	product := &models.Product{ID: id, Name: req.Name}
	if req.BarcodeSerial != "" {
		product.BarcodeSerial = sql.NullString{String: req.BarcodeSerial, Valid: true}
	}

	updated, err := h.catalog.UpdateProduct(ctx, product)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteProduct handles DELETE /v1/products/:id
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_product")
	defer span.End()

	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(ctx, id); err != nil {
		HandleAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetFault handles GET /v1/faults/:id
func (h *CatalogHandler) GetFault(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_fault")
	defer span.End()

	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	fault, err := h.catalog.GetFault(ctx, id)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, fault)
}

// UpdateFeature handles PUT /v1/features/:id
func (h *CatalogHandler) UpdateFeature(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "update_feature")
	defer span.End()

	id, req, ok := bindRename(c)
	if !ok {
		return
	}
	updated, err := h.catalog.UpdateFeature(ctx, &models.Feature{ID: id, Name: req.Name, Description: nullableDescription(req.Description)})
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteFeature handles DELETE /v1/features/:id
func (h *CatalogHandler) DeleteFeature(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_feature")
	defer span.End()

	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteFeature(ctx, id); err != nil {
		HandleAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateFault handles PUT /v1/faults/:id, replacing the feature links with
// the submitted set.
func (h *CatalogHandler) UpdateFault(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "update_fault")
	defer span.End()

	id, req, ok := bindRename(c)
	if !ok {
		return
	}
	updated, err := h.catalog.UpdateFault(ctx, &models.Fault{ID: id, Name: req.Name, Description: nullableDescription(req.Description), FeatureIDs: req.FeatureIDs})
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteFault handles DELETE /v1/faults/:id
func (h *CatalogHandler) DeleteFault(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_fault")
	defer span.End()

	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteFault(ctx, id); err != nil {
		HandleAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateRepairAction handles PUT /v1/repair-actions/:id
func (h *CatalogHandler) UpdateRepairAction(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "update_repair_action")
	defer span.End()

	id, req, ok := bindRename(c)
	if !ok {
		return
	}
	updated, err := h.catalog.UpdateRepairAction(ctx, &models.RepairAction{ID: id, Name: req.Name, Description: nullableDescription(req.Description)})
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteRepairAction handles DELETE /v1/repair-actions/:id
func (h *CatalogHandler) DeleteRepairAction(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_repair_action")
	defer span.End()

	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteRepairAction(ctx, id); err != nil {
		HandleAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateReasonNotRepaired handles PUT /v1/reasons-not-repaired/:id
func (h *CatalogHandler) UpdateReasonNotRepaired(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "update_reason_not_repaired")
	defer span.End()

	id, req, ok := bindRename(c)
	if !ok {
		return
	}
	updated, err := h.catalog.UpdateReasonNotRepaired(ctx, &models.ReasonNotRepaired{ID: id, Name: req.Name, Description: nullableDescription(req.Description)})
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteReasonNotRepaired handles DELETE /v1/reasons-not-repaired/:id
func (h *CatalogHandler) DeleteReasonNotRepaired(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_reason_not_repaired")
	defer span.End()

	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteReasonNotRepaired(ctx, id); err != nil {
		HandleAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// catalogEntryRequest is the shared create-request body for the simple
// catalogue tables. FeatureIDs is only meaningful for faults.
type catalogEntryRequest struct {
	ProductID   int    `json:"product_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"max=300"`
	FeatureIDs  []int  `json:"feature_ids"`
}

// catalogRenameRequest is the shared update-request body. FeatureIDs is only
// meaningful for faults.
type catalogRenameRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"max=300"`
	FeatureIDs  []int  `json:"feature_ids"`
}

// nullableDescription maps an optional request field onto its column; empty
// strings are stored as NULL.
func nullableDescription(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func parseIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		HandleValidationError(c, "id", c.Param("id"), "must be an integer")
		return 0, false
	}
	return id, true
}

func bindRename(c *gin.Context) (int, catalogRenameRequest, bool) {
	var req catalogRenameRequest
	id, ok := parseIDParam(c)
	if !ok {
		return 0, req, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request body", nil, err.Error())
		return 0, req, false
	}
	return id, req, true
}
