// internal/common/logger/logger_test.go
package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"churn-workers/internal/common/config"
)

func TestZapWrapper_FieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	log.WithFields(map[string]interface{}{"taskType": "predict-churn"}).
		WithError(errors.New("boom")).
		Warn("job failed", map[string]interface{}{"jobKey": int64(42)})

	entries := logs.All()
	assert.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "job failed", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "predict-churn", ctx["taskType"])
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, int64(42), ctx["jobKey"])
}

func TestNew_Level(t *testing.T) {
	assert.True(t, New("debug", "json").Core().Enabled(zapcore.DebugLevel))
	assert.False(t, New("warn", "console").Core().Enabled(zapcore.InfoLevel))
	assert.False(t, New("", "json").Core().Enabled(zapcore.DebugLevel))
}

func TestFromConfig(t *testing.T) {
	log := FromConfig(config.LoggingConfig{Level: "error", Format: "json", Output: "stderr"})
	w, ok := log.(*zapWrapper)
	assert.True(t, ok)
	assert.False(t, w.l.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, w.l.Core().Enabled(zapcore.ErrorLevel))
}
