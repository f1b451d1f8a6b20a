// Package observability builds the application logger.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig selects the logger's level and output encoding.
type LoggerConfig struct {
	// Level is one of debug, info, warn, error (default: info).
	Level string

	// Format is "json" for production or "console" for development
	// (default: json).
	Format string
}

// NewLogger constructs a zap logger from the config.
func NewLogger(cfg LoggerConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			return nil, fmt.Errorf("parsing log level: %w", err)
		}
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "", "json":
		zapCfg = zap.NewProductionConfig()
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}
