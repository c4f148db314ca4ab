package observability

import (
	"errors"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"repairlog/internal/config"
	contextutils "repairlog/internal/utils"
)

// GinMiddleware creates OpenTelemetry middleware for Gin HTTP requests
func GinMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// GinMiddlewareWithErrorHandling wraps otelgin and, after the handler
// chain runs, marks the request span failed for 4xx/5xx responses with
// the AppError details when the handlers attached one.
func GinMiddlewareWithErrorHandling(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		otelgin.Middleware(serviceName)(c)
		c.Next()

		status := c.Writer.Status()
		if status < 400 {
			return
		}
		span := trace.SpanFromContext(c.Request.Context())
		if span == nil {
			return
		}

		msg := "client error"
		if status >= 500 {
			msg = "server error"
		}
		severity := responseSeverity(status, c.Errors)
		if appErr := firstAppError(c.Errors); appErr != nil {
			msg = appErr.Message
			span.SetAttributes(attribute.String("error.code", string(appErr.Code)))
		} else if len(c.Errors) > 0 {
			msg = c.Errors[0].Error()
		}

		span.RecordError(errors.New(msg), trace.WithStackTrace(true))
		span.SetStatus(codes.Error, msg)
		span.SetAttributes(
			attribute.Int("http.status_code", status),
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.path", c.Request.URL.Path),
			attribute.String("error.handler", c.HandlerName()),
			attribute.String("error.severity", severity),
		)

		// Tie the failure to the browser's active capture session.
		if token, ok := sessions.Default(c).Get(config.SessionTokenField).(string); ok && token != "" {
			span.SetAttributes(AttributeSessionToken(token))
		}
		if c.Request.ContentLength > 0 {
			span.SetAttributes(attribute.Int64("error.request_size", c.Request.ContentLength))
		}
		if status >= 500 {
			span.SetAttributes(attribute.Bool("error.server_error", true))
		}
	}
}

func firstAppError(errs []*gin.Error) *contextutils.AppError {
	for _, err := range errs {
		if appErr, ok := err.Err.(*contextutils.AppError); ok {
			return appErr
		}
	}
	return nil
}

func responseSeverity(status int, errs []*gin.Error) string {
	if appErr := firstAppError(errs); appErr != nil {
		return string(appErr.Severity)
	}
	switch {
	case status >= 500:
		return string(contextutils.SeverityError)
	case status >= 400:
		return string(contextutils.SeverityWarn)
	default:
		return string(contextutils.SeverityInfo)
	}
}
