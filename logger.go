package kadedb

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the shared structured logger every engine uses,
// configured from cfg.Logging. Callers that want the package-wide
// logger used by zap.S() elsewhere in the process can pass the result
// to zap.ReplaceGlobals.
func NewLogger(cfg LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	zcfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      false,
		Encoding:         cfg.Encoding,
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if zcfg.Encoding == "" {
		zcfg.Encoding = "json"
	}
	return zcfg.Build()
}

// NewNopLogger returns a logger that discards everything, for tests
// and for embedders who want KadeDB silent by default.
func NewNopLogger() *zap.Logger { return zap.NewNop() }
