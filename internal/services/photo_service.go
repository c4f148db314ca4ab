package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"repairlog/internal/config"
	"repairlog/internal/models"
	"repairlog/internal/observability"
	contextutils "repairlog/internal/utils"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PhotoService stores photos captured during the feature-selection step.
// Clients upload them as base64 data URIs; the decoded bytes live in the
// database alongside the repair results that reference them.
type PhotoService struct {
	db            *sql.DB
	maxPhotoBytes int
	httpClient    *http.Client
	logger        *observability.Logger
}

// NewPhotoService creates a new PhotoService instance.
func NewPhotoService(db *sql.DB, maxPhotoBytes int, logger *observability.Logger) *PhotoService {
	if db == nil {
		panic("NewPhotoService: db is nil")
	}
	if logger == nil {
		panic("NewPhotoService: logger is nil")
	}
	return &PhotoService{
		db:            db,
		maxPhotoBytes: maxPhotoBytes,
		httpClient: &http.Client{
			Timeout: config.DefaultHTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
			),
		},
		logger: logger,
	}
}

// DecodeDataURI splits a "data:image/jpeg;base64,..." payload into its
// content type and decoded bytes.
func DecodeDataURI(dataURI string) (contentType string, data []byte, err error) {
	if !strings.HasPrefix(dataURI, "data:") {
		return "", nil, contextutils.WrapError(contextutils.ErrPhotoCaptureFailed, "payload is not a data URI")
	}

	header, encoded, found := strings.Cut(dataURI[len("data:"):], ",")
	if !found {
		return "", nil, contextutils.WrapError(contextutils.ErrPhotoCaptureFailed, "data URI has no payload")
	}

	contentType = strings.TrimSuffix(header, ";base64")
	if contentType == header {
		return "", nil, contextutils.WrapError(contextutils.ErrPhotoCaptureFailed, "data URI is not base64 encoded")
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	data, err = base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, contextutils.WrapError(contextutils.ErrPhotoCaptureFailed, "failed to decode base64 payload")
	}
	return contentType, data, nil
}

// CreatePhoto decodes and stores an uploaded photo, returning the stored
// record without the image bytes. featureID links the photo to the feature it
// illustrates; zero means unlinked.
func (s *PhotoService) CreatePhoto(ctx context.Context, productID, featureID int, title, dataURI string) (result0 *models.Photo, err error) {
	ctx, span := observability.TracePhotoFunction(ctx, "create_photo",
		observability.AttributeProductID(productID),
	)
	defer observability.FinishSpan(span, &err)

	contentType, data, err := DecodeDataURI(dataURI)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("photo.bytes", len(data)),
		attribute.String("photo.content_type", contentType),
	)

	return s.storePhoto(ctx, productID, featureID, title, contentType, data)
}

// ImportPhotoFromURL downloads an image over HTTP and stores it like an
// uploaded photo. The download client is instrumented so the fetch shows up
// as a client span.
func (s *PhotoService) ImportPhotoFromURL(ctx context.Context, productID, featureID int, title, imageURL string) (result0 *models.Photo, err error) {
	ctx, span := observability.TracePhotoFunction(ctx, "import_photo_from_url",
		observability.AttributeProductID(productID),
	)
	defer observability.FinishSpan(span, &err)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrPhotoCaptureFailed, "invalid image URL")
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrPhotoCaptureFailed, "failed to fetch image: %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, contextutils.WrapErrorf(contextutils.ErrPhotoCaptureFailed, "image fetch returned status %d", resp.StatusCode)
	}

	// Read one byte past the cap so oversized images are detected without
	// buffering the whole body
	data, err := io.ReadAll(io.LimitReader(resp.Body, int64(s.maxPhotoBytes)+1))
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrPhotoCaptureFailed, "failed to read image body")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = "image/jpeg"
	}
	span.SetAttributes(
		attribute.Int("photo.bytes", len(data)),
		attribute.String("photo.content_type", contentType),
	)

	return s.storePhoto(ctx, productID, featureID, title, contentType, data)
}

func (s *PhotoService) storePhoto(ctx context.Context, productID, featureID int, title, contentType string, data []byte) (*models.Photo, error) {
	if len(data) > s.maxPhotoBytes {
		return nil, contextutils.WrapErrorf(contextutils.ErrPhotoCaptureFailed,
			"photo is %d bytes, limit is %d", len(data), s.maxPhotoBytes)
	}

	photo := &models.Photo{
		ProductID:   productID,
		Title:       title,
		ContentType: contentType,
	}
	if featureID != 0 {
		photo.FeatureID = sql.NullInt64{Int64: int64(featureID), Valid: true}
	}

	query := `INSERT INTO photos (product_id, title, feature_id, content_type, image, uploaded_at)
	          VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING id, uploaded_at`
	err := s.db.QueryRowContext(ctx, query, photo.ProductID, photo.Title, photo.FeatureID, photo.ContentType, data).
		Scan(&photo.ID, &photo.UploadedAt)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to insert photo")
	}

	s.logger.Info(ctx, "Photo stored", map[string]interface{}{
		"photo_id":   photo.ID,
		"product_id": productID,
		"bytes":      len(data),
	})
	return photo, nil
}

// GetPhoto fetches a photo's metadata and image bytes for serving.
func (s *PhotoService) GetPhoto(ctx context.Context, id int) (result0 *models.Photo, err error) {
	ctx, span := observability.TracePhotoFunction(ctx, "get_photo", observability.AttributePhotoID(id))
	defer observability.FinishSpan(span, &err)

	query := `SELECT id, product_id, title, feature_id, content_type, image, uploaded_at FROM photos WHERE id = $1`
	var p models.Photo
	err = s.db.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.ProductID, &p.Title, &p.FeatureID, &p.ContentType, &p.Image, &p.UploadedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "photo %d not found", id)
		}
		return nil, contextutils.WrapError(err, "failed to scan photo")
	}
	return &p, nil
}

// ListPhotos returns photo metadata, newest first, optionally filtered by
// product and by the feature the photo was taken for. The image bytes are
// left out of listings.
func (s *PhotoService) ListPhotos(ctx context.Context, productID, featureID int) (result0 []models.Photo, err error) {
	ctx, span := observability.TracePhotoFunction(ctx, "list_photos", observability.AttributeProductID(productID))
	defer observability.FinishSpan(span, &err)

	query := `SELECT id, product_id, title, feature_id, content_type, uploaded_at FROM photos`
	var clauses []string
	var args []interface{}
	if productID != 0 {
		args = append(args, productID)
		clauses = append(clauses, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if featureID != 0 {
		args = append(args, featureID)
		clauses = append(clauses, fmt.Sprintf("feature_id = $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY uploaded_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query photos")
	}
	defer func() {
		_ = rows.Close()
	}()

	photos := []models.Photo{}
	for rows.Next() {
		var p models.Photo
		if err := rows.Scan(&p.ID, &p.ProductID, &p.Title, &p.FeatureID, &p.ContentType, &p.UploadedAt); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan photo")
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate photos")
	}
	return photos, nil
}

// DeletePhoto removes a photo by ID.
func (s *PhotoService) DeletePhoto(ctx context.Context, id int) (err error) {
	ctx, span := observability.TracePhotoFunction(ctx, "delete_photo", observability.AttributePhotoID(id))
	defer observability.FinishSpan(span, &err)

	result, err := s.db.ExecContext(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return contextutils.WrapError(err, "failed to delete photo")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "photo %d not found", id)
	}
	return nil
}
