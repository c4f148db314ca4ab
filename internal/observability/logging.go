// Package observability provides OpenTelemetry tracing, metrics, and structured logging
// with trace correlation for the repair capture application.
package observability

import (
	"context"
	"os"

	"repairlog/internal/config"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a zap logger that correlates every entry with the active
// trace when the context carries one. Field maps keep call sites terse.
type Logger struct {
	*zap.Logger
}

// NewLogger builds a logger at info level. A nil or disabled config
// yields a no-op logger, which tests rely on.
func NewLogger(cfg *config.OpenTelemetryConfig) *Logger {
	return NewLoggerWithLevel(cfg, zap.InfoLevel)
}

// NewLoggerWithLevel builds a logger at the given level, teeing entries
// to stdout and, when an OTLP endpoint is configured, to the collector.
func NewLoggerWithLevel(cfg *config.OpenTelemetryConfig, level zapcore.Level) *Logger {
	if cfg == nil || !cfg.EnableLogging {
		return &Logger{Logger: zap.NewNop()}
	}

	base := stdoutLogger(level)

	if cfg.Endpoint == "" {
		return &Logger{Logger: base}
	}

	core, err := collectorCore(cfg)
	if err != nil {
		// Keep stdout logging alive rather than failing startup.
		base.Error("otlp log export unavailable", zap.Error(err), zap.String("endpoint", cfg.Endpoint))
		return &Logger{Logger: base}
	}

	base = zap.New(zapcore.NewTee(base.Core(), core))
	base.Info("otlp log export configured", zap.String("endpoint", cfg.Endpoint), zap.String("protocol", cfg.Protocol))
	return &Logger{Logger: base}
}

func stdoutLogger(level zapcore.Level) *zap.Logger {
	zc := zap.NewProductionConfig()
	if os.Getenv("ENV") == "development" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.TimeKey = "timestamp"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zc.Build()
	if err != nil {
		return zap.NewExample()
	}
	return logger
}

// collectorCore builds a zap core backed by the OTLP log exporter.
func collectorCore(cfg *config.OpenTelemetryConfig) (zapcore.Core, error) {
	ctx := context.Background()

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	))
	if err != nil {
		return nil, err
	}

	exporter, err := otlploggrpc.New(ctx,
		otlploggrpc.WithEndpoint(cfg.Endpoint),
		otlploggrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	provider := log.NewLoggerProvider(
		log.WithProcessor(log.NewBatchProcessor(exporter)),
		log.WithResource(res),
	)
	return otelzap.NewCore("repairlog", otelzap.WithLoggerProvider(provider)), nil
}

// Debug logs a debug message with context
func (l *Logger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.Logger.Debug(msg, l.zapFields(ctx, fields)...)
}

// Info logs an info message with context
func (l *Logger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.Logger.Info(msg, l.zapFields(ctx, fields)...)
}

// Warn logs a warning message with context
func (l *Logger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.Logger.Warn(msg, l.zapFields(ctx, fields)...)
}

// Error logs an error message with context. The error, when non-nil,
// lands in the "error" field.
func (l *Logger) Error(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	merged := mergeFieldMaps(fields)
	if err != nil {
		merged["error"] = err.Error()
	}
	l.Logger.Error(msg, l.zapFields(ctx, []map[string]interface{}{merged})...)
}

// zapFields flattens the field maps and stamps trace correlation IDs
// from the context when a recording span is present.
func (l *Logger) zapFields(ctx context.Context, fields []map[string]interface{}) []zap.Field {
	merged := mergeFieldMaps(fields)

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			merged["trace_id"] = sc.TraceID().String()
			merged["span_id"] = sc.SpanID().String()
		}
	}

	out := make([]zap.Field, 0, len(merged))
	for k, v := range merged {
		out = append(out, zap.Any(k, v))
	}
	return out
}

func mergeFieldMaps(fields []map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{})
	for _, m := range fields {
		for k, v := range m {
			merged[k] = v
		}
	}
	return merged
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	return l.Logger.Sync()
}
