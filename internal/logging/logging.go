// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the process logger from configuration.
// Components never use a global logger; they receive a *zap.Logger and
// name their own child.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/patent-scout/pkg/types"
)

// New returns a logger for cfg. Level defaults to info, format to console,
// and output to stderr so command output on stdout stays clean.
func New(cfg types.LogConfig) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	var encCfg zapcore.EncoderConfig
	encoding := strings.ToLower(cfg.Format)
	switch encoding {
	case "json":
		encCfg = zap.NewProductionEncoderConfig()
	case "", "console":
		encoding = "console"
		encCfg = zap.NewDevelopmentEncoderConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q (want json or console)", cfg.Format)
	}
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      encoding == "console",
		Encoding:         encoding,
		EncoderConfig:    encCfg,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}
	log, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return log, nil
}

// ParseLevel maps debug, info, warn and error (any case) to a zap level.
// Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q: %w", s, err)
	}
	return l, nil
}

// LogFile returns the first configured output that is a file path, or "".
func LogFile(cfg types.LogConfig) string {
	for _, p := range cfg.OutputPaths {
		switch p {
		case "stdout", "stderr":
			continue
		}
		return strings.TrimPrefix(p, "file://")
	}
	return ""
}
