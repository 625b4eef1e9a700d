package observability_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/regen-tracker/internal/infrastructure/observability"
)

func TestInitMetrics_RecordersAcceptValues(t *testing.T) {
	metrics, err := observability.InitMetrics()
	require.NoError(t, err)
	require.NotNil(t, metrics)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		observability.RecordRequestMetric(ctx, metrics, "POST", "POST /api/waste-logs", 201, 12*time.Millisecond)
		observability.RecordDBMetric(ctx, metrics, "ledger.record_entry", 3*time.Millisecond)
		observability.RecordCacheHit(ctx, metrics, "leaderboard:10")
		observability.RecordCacheMiss(ctx, metrics, "leaderboard:10")
		observability.RecordEntryLogged(ctx, metrics, "Plastic", 25)
		observability.RecordProfileDrift(ctx, metrics)
	})
}

func TestRecorders_NilMetricsIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		observability.RecordEntryLogged(context.Background(), nil, "Paper", 1.8)
		observability.RecordRequestMetric(context.Background(), nil, "GET", "/health", 200, time.Millisecond)
	})
}

func TestLoggerFromContext_WithoutSpan(t *testing.T) {
	observability.InitLogger("regen-test", "test", "debug")
	logger := observability.LoggerFromContext(context.Background())
	require.NotNil(t, logger)
}

func TestLoggerFromContext_CarriesAnnotatedUser(t *testing.T) {
	var buf bytes.Buffer
	previous := log.Logger
	log.Logger = observability.NewLogger(&buf, "regen-test", "production", "info")
	t.Cleanup(func() { log.Logger = previous })

	ctx := observability.WithRequestFields(context.Background())
	observability.AnnotateUser(ctx, "u-7", "admin")
	observability.LoggerFromContext(ctx).Info().Msg("status changed")

	line := buf.String()
	assert.Contains(t, line, `"service":"regen-test"`)
	assert.Contains(t, line, `"user_id":"u-7"`)
	assert.Contains(t, line, `"role":"admin"`)
}

func TestAnnotateUser_WithoutFieldsIsNoop(t *testing.T) {
	ctx := context.Background()
	observability.AnnotateUser(ctx, "u-7", "user")

	userID, _ := observability.RequestUser(ctx)
	assert.Empty(t, userID)

	withFields := observability.WithRequestFields(ctx)
	assert.True(t, withFields == observability.WithRequestFields(withFields))
}

func TestNewLogger_LevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(&buf, "regen-test", "production", "chatty")

	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
