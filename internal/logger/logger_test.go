package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := &Logger{level: "debug", sugar: zap.New(core).Sugar()}

	l.With("topic", "product-events").Info("Received %d messages", 3)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Received 3 messages", entries[0].Message)
	assert.Equal(t, "product-events", entries[0].ContextMap()["topic"])
}

func TestPrintfLogsAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := &Logger{level: "debug", sugar: zap.New(core).Sugar()}

	l.Printf("fetched %s", "batch")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.DebugLevel, logs.All()[0].Level)
}
