package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"repairlog/internal/observability"
	contextutils "repairlog/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorRecovery converts panics into structured 500 responses. Nothing in
// the capture pipeline is retried automatically, so recovery only logs and
// answers; it never re-runs the handler.
func ErrorRecovery(logger *observability.Logger) gin.HandlerFunc {
	if logger == nil {
		panic("ErrorRecovery: logger is nil")
	}

	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				appErr := contextutils.NewAppErrorWithCause(
					contextutils.ErrorCodeInternalError,
					contextutils.SeverityFatal,
					"internal server error",
					fmt.Sprintf("panic: %v", recovered),
					nil,
				)

				logger.Error(c.Request.Context(), "Panic recovered in handler", appErr, map[string]interface{}{
					"method": c.Request.Method,
					"path":   c.Request.URL.Path,
					"stack":  string(debug.Stack()),
				})

				c.AbortWithStatusJSON(http.StatusInternalServerError, appErr.ToJSON())
			}
		}()

		c.Next()
	}
}
