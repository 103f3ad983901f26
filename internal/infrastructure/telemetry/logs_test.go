package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/siatbridge/backend/internal/infrastructure/telemetry"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{
		Enabled: false,
	}, zap.NewNop())

	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.ForceFlush(context.Background()))
	assert.NoError(t, lp.Shutdown(context.Background()))
}

func TestNewZapOTELCore_DisabledProviderIsNop(t *testing.T) {
	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{
		Enabled: false,
	}, zap.NewNop())
	require.NoError(t, err)

	core := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
		ServiceName:    "siat-bridge",
		LoggerProvider: lp,
		Level:          zapcore.InfoLevel,
	})

	assert.False(t, core.Enabled(zapcore.ErrorLevel))
}

func TestNewZapOTELCore_NilProviderIsNop(t *testing.T) {
	core := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
		ServiceName: "siat-bridge",
		Level:       zapcore.InfoLevel,
	})

	assert.False(t, core.Enabled(zapcore.ErrorLevel))
}

func TestNewZapOTELCore_LevelFilter(t *testing.T) {
	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:4317",
		ServiceName:       "siat-bridge",
		Insecure:          true,
	}, zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = lp.Shutdown(context.Background()) }()

	core := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
		ServiceName:    "siat-bridge",
		LoggerProvider: lp,
		Level:          zapcore.WarnLevel,
	})

	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.WarnLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))

	// With keeps the filter in place
	withFields := core.With([]zapcore.Field{zap.String("component", "test")})
	assert.False(t, withFields.Enabled(zapcore.DebugLevel))
}

func TestNewBridgedLogger_WritesToBaseCore(t *testing.T) {
	baseCore, recorded := observer.New(zapcore.InfoLevel)

	log := telemetry.NewBridgedLogger(baseCore, zapcore.NewNopCore())
	log.Info("invoice emitted", zap.String("unique_code", "CUF-1"))

	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "invoice emitted", entries[0].Message)
	assert.Equal(t, "CUF-1", entries[0].ContextMap()["unique_code"])
}
