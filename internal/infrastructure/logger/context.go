package logger

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/library/pkg/tracing"
)

type loggerKey struct{}
type requestIDKey struct{}

// WithContext 把logger放入ctx
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext 取出请求级logger，并补充trace_id和span_id（如果有）
// ctx中没有logger时退回全局logger
func FromContext(ctx context.Context) *zap.Logger {
	l, ok := ctx.Value(loggerKey{}).(*zap.Logger)
	if !ok || l == nil {
		l = zap.L()
	}
	if traceID := tracing.ExtractTraceID(ctx); traceID != "" {
		l = l.With(
			zap.String("trace_id", traceID),
			zap.String("span_id", tracing.ExtractSpanID(ctx)),
		)
	}
	return l
}

// WithRequestID 记录request_id，同时返回带request_id字段的logger
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, requestIDKey{}, requestID)
	enriched := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enriched), enriched
}

// GetRequestID 取出request_id
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
