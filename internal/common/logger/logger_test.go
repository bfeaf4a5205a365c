package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"info", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestZapAdapter_FieldsAndChildLoggers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	child := log.WithFields(map[string]interface{}{"component": "retriever"})
	child.Info("Loading data...", map[string]interface{}{"path": "data.csv"})
	log.Error("load failed", map[string]interface{}{"error": errors.New("boom")})

	require.Equal(t, 2, logs.Len())

	first := logs.All()[0]
	assert.Equal(t, "Loading data...", first.Message)
	assert.Equal(t, "retriever", first.ContextMap()["component"])
	assert.Equal(t, "data.csv", first.ContextMap()["path"])

	second := logs.All()[1]
	assert.Equal(t, zapcore.ErrorLevel, second.Level)
	assert.Equal(t, "boom", second.ContextMap()["error"])
}

func TestZapAdapter_ErrorValuesAreEncodedAsErrors(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := NewZapAdapter(zap.New(core))

	log.Warn("cache miss", map[string]interface{}{"cause": errors.New("redis down")})

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "redis down", logs.All()[0].ContextMap()["cause"])
}

func TestNew_FallsBackToNopOnBadOutput(t *testing.T) {
	l := New("info", "json", "/nonexistent-dir/for/sure/log.txt")
	require.NotNil(t, l)
	l.Info("does not panic")
}

func TestNewNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	log.Debug("ignored", nil)
	log.WithFields(map[string]interface{}{"a": 1}).Info("ignored", nil)
}
