package observability

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitMetrics(t *testing.T) {
	m, err := InitMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordRequestMetric(ctx, m, "GET", "/health", 200, time.Millisecond)
		RecordBooking(ctx, m, "confirmed")
		RecordClassification(ctx, m, "success")
	})
}

func TestRecordersTolerateNilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordRequestMetric(ctx, nil, "GET", "/health", 200, time.Millisecond)
		RecordBooking(ctx, nil, "conflict")
		RecordClassification(ctx, nil, "error")
	})
}

func TestLoggerFromContext_AddsTraceIDs(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	logger := LoggerFromContext(ctx)
	require.NotNil(t, logger)

	plain := LoggerFromContext(context.Background())
	require.NotNil(t, plain)
}

func TestInitLogger_Level(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	initLogger(&buf, "careroute", "production", "warn")
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	GetLogger().Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	GetLogger().Warn().Msg("kept")
	assert.Contains(t, buf.String(), `"service":"careroute"`)
	assert.Contains(t, buf.String(), "kept")

	initLogger(&buf, "careroute", "development", "bogus")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	initLogger(&buf, "careroute", "production", "")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
