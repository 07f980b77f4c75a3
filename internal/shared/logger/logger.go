package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger
	once   sync.Once

	level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
)

// Configure sets the level and switches to the production encoder when env
// is production. Packages keep the *zap.Logger they got at init, so the
// instance is rebuilt in place. Call it once at boot, before any logging
// goroutine starts.
func Configure(lvl string, env string) {
	if parsed, err := zapcore.ParseLevel(lvl); err == nil {
		level.SetLevel(parsed)
	}
	if env == "production" {
		*GetLogger() = *build(zap.NewProductionConfig())
	}
}

// GetLogger returns zap.Logger instance, but using singleton pattern creates only one reusable instace
// development config by default
func GetLogger() *zap.Logger {
	once.Do(func() {
		logger = build(zap.NewDevelopmentConfig())
	})
	return logger
}

func build(cfg zap.Config) *zap.Logger {
	cfg.Level = level
	l, err := cfg.Build()
	if err != nil {
		panic("failed logger setup : " + err.Error())
	}
	return l
}
