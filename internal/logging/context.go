package logging

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

type correlationKey struct{}

// WithCorrelationID binds a request correlation id to ctx and stores a
// logger carrying it, so zerolog.Ctx(ctx) also reports the id.
func WithCorrelationID(ctx context.Context, base zerolog.Logger, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}

	ctx = context.WithValue(ctx, correlationKey{}, id)
	scoped := base.With().Str("correlation_id", id).Logger()
	return scoped.WithContext(ctx)
}

// CorrelationID returns the correlation id bound to ctx, if any.
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// FromContext returns base tagged with the correlation id carried by ctx.
// Component loggers use it so their lines join up with the request log.
func FromContext(ctx context.Context, base zerolog.Logger) *zerolog.Logger {
	logger := base
	if id := CorrelationID(ctx); id != "" {
		logger = base.With().Str("correlation_id", id).Logger()
	}
	return &logger
}
