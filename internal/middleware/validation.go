package middleware

import (
	"bytes"
	"io"
	"net/http"

	"repairlog/internal/observability"
	contextutils "repairlog/internal/utils"

	"github.com/gin-gonic/gin"
)

// RequestValidation validates the request body against a named schema before
// the handler runs. The body is restored so the handler can bind it again.
func RequestValidation(loader *SchemaLoader, logger *observability.Logger, schemaName string) gin.HandlerFunc {
	if loader == nil {
		panic("RequestValidation: loader is nil")
	}
	if !loader.HasSchema(schemaName) {
		panic("RequestValidation: unknown schema " + schemaName)
	}

	return func(c *gin.Context) {
		ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "request_validation")
		defer span.End()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if err := loader.ValidateBytes(body, schemaName); err != nil {
			logger.Warn(ctx, "Request validation failed", map[string]interface{}{
				"method": c.Request.Method,
				"path":   c.Request.URL.Path,
				"schema": schemaName,
				"error":  err.Error(),
			})
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "request validation failed",
				"code":  string(contextutils.ErrorCodeInvalidInput),
				"details": gin.H{
					"schema": schemaName,
					"reason": err.Error(),
				},
			})
			return
		}

		c.Next()
	}
}
