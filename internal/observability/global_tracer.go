package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var globalTracer trace.Tracer

// InitGlobalTracer initializes the global tracer for the application.
func InitGlobalTracer() {
	globalTracer = otel.Tracer("repairlog")
}

// GetGlobalTracer returns the global tracer instance for the application.
func GetGlobalTracer() trace.Tracer {
	if globalTracer == nil {
		// Fallback to default tracer if not initialized
		globalTracer = otel.Tracer("repairlog")
	}
	return globalTracer
}

// TraceFunction starts a new span with a descriptive name for the given service and function.
func TraceFunction(ctx context.Context, serviceName, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := GetGlobalTracer()
	spanName := fmt.Sprintf("%s.%s", serviceName, functionName)
	return tracer.Start(ctx, spanName, trace.WithAttributes(attributes...))
}

// TraceCaptureFunction starts a new span for a capture workflow function.
func TraceCaptureFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "capture", functionName, attributes...)
}

// TraceCatalogFunction starts a new span for a catalogue service function.
func TraceCatalogFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "catalog", functionName, attributes...)
}

// TraceMatcherFunction starts a new span for a fault matcher function.
func TraceMatcherFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "matcher", functionName, attributes...)
}

// TracePhotoFunction starts a new span for a photo service function.
func TracePhotoFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "photo", functionName, attributes...)
}

// TraceResultsFunction starts a new span for a repair result service function.
func TraceResultsFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "results", functionName, attributes...)
}

// TraceEventFunction starts a new span for a repair event service function.
func TraceEventFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "event", functionName, attributes...)
}

// TraceHandlerFunction starts a new span for a handler function.
func TraceHandlerFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "handler", functionName, attributes...)
}

// TraceDatabaseFunction starts a new span for a database function.
func TraceDatabaseFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "database", functionName, attributes...)
}

// AttributeProductID returns a tracing attribute for a product ID.
func AttributeProductID(id int) attribute.KeyValue {
	return attribute.Int("product.id", id)
}

// AttributeSessionToken returns a tracing attribute for a capture session token.
func AttributeSessionToken(token string) attribute.KeyValue {
	return attribute.String("capture.session_token", token)
}

// AttributeOutcome returns a tracing attribute for a repair outcome.
func AttributeOutcome(outcome string) attribute.KeyValue {
	return attribute.String("capture.outcome", outcome)
}

// AttributeWorkflowState returns a tracing attribute for a workflow state.
func AttributeWorkflowState(state string) attribute.KeyValue {
	return attribute.String("capture.state", state)
}

// AttributeFeatureCount returns a tracing attribute for a selected feature count.
func AttributeFeatureCount(n int) attribute.KeyValue {
	return attribute.Int("matcher.feature_count", n)
}

// AttributeFaultID returns a tracing attribute for a fault ID.
func AttributeFaultID(id int) attribute.KeyValue {
	return attribute.Int("fault.id", id)
}

// AttributePhotoID returns a tracing attribute for a photo ID.
func AttributePhotoID(id int) attribute.KeyValue {
	return attribute.Int("photo.id", id)
}

// AttributeResultType returns a tracing attribute for a repair result type.
func AttributeResultType(t string) attribute.KeyValue {
	return attribute.String("result.type", t)
}

// AttributePage returns a tracing attribute for a page value.
func AttributePage(page int) attribute.KeyValue {
	return attribute.Int("page", page)
}

// AttributePageSize returns a tracing attribute for a page size value.
func AttributePageSize(size int) attribute.KeyValue {
	return attribute.Int("page_size", size)
}
