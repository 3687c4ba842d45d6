package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/finance-bot/internal/config"
	"go.opentelemetry.io/otel/attribute"
)

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TelemetryConfig{}, "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_Stdout(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TelemetryConfig{
		Enabled:     true,
		Exporter:    "stdout",
		ServiceName: "finance-bot-test",
	}, "test")
	require.NoError(t, err)

	ctx, span := StartSpan(context.Background(), "test.span", attribute.Int64("bucket_id", 1))
	NewActions("life_xp").Record(ctx, "bucket_created", nil)
	EndSpan(span, errors.New("boom"))

	require.NoError(t, shutdown(context.Background()))
}

func TestActions_NilSafe(t *testing.T) {
	var a *Actions
	a.Record(context.Background(), "premium_paid", nil)
}
