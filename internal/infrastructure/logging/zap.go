package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"microloans-api/internal/config"
)

// New builds the process logger: JSON at info level in production,
// human-readable console output at debug level otherwise. Tests get warn
// and above only.
func New(env string) (*zap.Logger, error) {
	switch env {
	case config.EnvProduction:
		return zap.NewProduction()
	case config.EnvTesting:
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		return cfg.Build()
	default:
		return zap.NewDevelopment()
	}
}
