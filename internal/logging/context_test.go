package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestFromContextAddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf).With().Str("component", "task_service").Logger()

	ctx := WithCorrelationID(context.Background(), zerolog.Nop(), " corr-7 ")
	require.Equal(t, "corr-7", CorrelationID(ctx))

	FromContext(ctx, base).Info().Msg("stored")
	require.Contains(t, buf.String(), `"component":"task_service"`)
	require.Contains(t, buf.String(), `"correlation_id":"corr-7"`)
}

func TestWithCorrelationIDStoresRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithCorrelationID(context.Background(), zerolog.New(&buf), "corr-8")

	zerolog.Ctx(ctx).Warn().Msg("slow")
	require.Contains(t, buf.String(), `"correlation_id":"corr-8"`)
}

func TestFromContextWithoutCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithCorrelationID(context.Background(), base, "  ")
	require.Empty(t, CorrelationID(ctx))

	FromContext(ctx, base).Info().Msg("plain")
	require.NotContains(t, buf.String(), "correlation_id")
}
