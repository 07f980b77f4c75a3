package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestConfigureUpdatesSharedInstance(t *testing.T) {
	l := GetLogger()
	t.Cleanup(func() { level.SetLevel(zapcore.DebugLevel) })

	Configure("warn", "production")

	assert.Same(t, l, GetLogger())
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestConfigureIgnoresUnknownLevel(t *testing.T) {
	t.Cleanup(func() { level.SetLevel(zapcore.DebugLevel) })
	level.SetLevel(zapcore.InfoLevel)

	Configure("loud", "development")

	assert.Equal(t, zapcore.InfoLevel, level.Level())
}
