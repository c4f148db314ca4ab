package handlers

import (
	"net/http"
	"strconv"

	"repairlog/internal/config"
	"repairlog/internal/models"
	"repairlog/internal/observability"
	"repairlog/internal/services"

	"github.com/gin-gonic/gin"
)

// PhotoHandler serves photo upload, download and listing.
type PhotoHandler struct {
	photos *services.PhotoService
	cfg    *config.Config
	logger *observability.Logger
}

// NewPhotoHandler creates a new PhotoHandler instance.
func NewPhotoHandler(photos *services.PhotoService, cfg *config.Config, logger *observability.Logger) *PhotoHandler {
	return &PhotoHandler{photos: photos, cfg: cfg, logger: logger}
}

// CreatePhoto handles POST /v1/photos. The image arrives either as a base64
// data URI, the way camera captures leave the browser, or as an image_url to
// import from.
func (h *PhotoHandler) CreatePhoto(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_photo")
	defer span.End()

	var req struct {
		ProductID int    `json:"product_id" binding:"required"`
		Title     string `json:"title" binding:"required"`
		FeatureID int    `json:"feature_id"`
		Image     string `json:"image"`
		ImageURL  string `json:"image_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request body", nil, err.Error())
		return
	}

	var (
		photo *models.Photo
		err   error
	)
	switch {
	case req.Image != "":
		photo, err = h.photos.CreatePhoto(ctx, req.ProductID, req.FeatureID, req.Title, req.Image)
	case req.ImageURL != "":
		photo, err = h.photos.ImportPhotoFromURL(ctx, req.ProductID, req.FeatureID, req.Title, req.ImageURL)
	default:
		HandleValidationError(c, "image", nil, "either image or image_url is required")
		return
	}
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, photo)
}

// ListPhotos handles GET /v1/photos?product_id=&feature_id=
func (h *PhotoHandler) ListPhotos(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_photos")
	defer span.End()

	photos, err := h.photos.ListPhotos(ctx, ParseIntQuery(c, "product_id"), ParseIntQuery(c, "feature_id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photos": photos})
}

// GetPhotoImage handles GET /v1/photos/:id/image, serving the raw bytes with
// the stored content type.
func (h *PhotoHandler) GetPhotoImage(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_photo_image")
	defer span.End()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		HandleValidationError(c, "id", c.Param("id"), "must be an integer")
		return
	}

	photo, err := h.photos.GetPhoto(ctx, id)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.Data(http.StatusOK, photo.ContentType, photo.Image)
}

// GetPhoto handles GET /v1/photos/:id, returning metadata only.
func (h *PhotoHandler) GetPhoto(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_photo")
	defer span.End()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		HandleValidationError(c, "id", c.Param("id"), "must be an integer")
		return
	}

	photo, err := h.photos.GetPhoto(ctx, id)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, photo)
}

// DeletePhoto handles DELETE /v1/photos/:id
func (h *PhotoHandler) DeletePhoto(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_photo")
	defer span.End()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		HandleValidationError(c, "id", c.Param("id"), "must be an integer")
		return
	}

	if err := h.photos.DeletePhoto(ctx, id); err != nil {
		HandleAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
