package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Levels lists the levels accepted by SetLevel, lowest first.
var Levels = []string{"debug", "info", "warn", "error"}

// New builds the process logger. The returned AtomicLevel lets the admin
// endpoint change verbosity without a restart.
func New(level, format string) (*zap.Logger, zap.AtomicLevel, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	atom := zap.NewAtomicLevelAt(lvl)

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

		cfg = zap.Config{
			Development:      true,
			Encoding:         "console",
			EncoderConfig:    encoderConfig,
			OutputPaths:      []string{"stdout"},
			ErrorOutputPaths: []string{"stderr"},
		}
	}
	cfg.Level = atom

	logger, err := cfg.Build()
	if err != nil {
		return nil, atom, fmt.Errorf("build logger: %w", err)
	}
	return logger, atom, nil
}

// SetLevel parses name and applies it to atom.
func SetLevel(atom zap.AtomicLevel, name string) error {
	for _, l := range Levels {
		if l == name {
			lvl, err := zapcore.ParseLevel(name)
			if err != nil {
				return err
			}
			atom.SetLevel(lvl)
			return nil
		}
	}
	return fmt.Errorf("unknown log level %q", name)
}
