package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFrom_FallsBackToGlobal(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(zap.NewNop()) })

	From(context.Background()).Info("global")
	require.Equal(t, 1, logs.Len())
}

func TestFrom_UsesScopedLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	scoped := zap.New(core).With(RequestID("req-1"))
	ctx := ToContext(context.Background(), scoped)

	From(ctx).Info("scoped", SessionID("s1"), Step("B"))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "req-1", fields["request_id"])
	require.Equal(t, "s1", fields["session_id"])
	require.Equal(t, "B", fields["step"])
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, zapcore.WarnLevel, parseLevel("WARN"))
	require.Equal(t, zapcore.DebugLevel, parseLevel(" debug "))
	require.Equal(t, zapcore.InfoLevel, parseLevel(""))
	require.Equal(t, zapcore.InfoLevel, parseLevel("loud"))
}
