// Package logging builds the zap logger used across lovary.
//
// Records are written as JSON to a size-rotated file (lumberjack) so the
// terminal UI keeps the screen to itself. String fields whose key looks like a
// credential are masked before they reach the encoder.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	// Path is the log file. Empty disables logging.
	Path  string
	Level string

	// Rotation limits; zero values fall back to the defaults below.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

const (
	defaultMaxSizeMB  = 5
	defaultMaxBackups = 3
	defaultMaxAgeDays = 14
)

// New returns a logger writing to opts.Path and a function that flushes and
// closes it. With an empty path it returns a no-op logger.
func New(opts Options) (*zap.Logger, func(), error) {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		return zap.NewNop(), func() {}, nil
	}
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}

	writer := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    orDefault(opts.MaxSizeMB, defaultMaxSizeMB),
		MaxBackups: orDefault(opts.MaxBackups, defaultMaxBackups),
		MaxAge:     orDefault(opts.MaxAgeDays, defaultMaxAgeDays),
		LocalTime:  true,
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeDuration = zapcore.StringDurationEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(writer),
		level,
	)
	logger := zap.New(Redact(core))
	closer := func() {
		_ = logger.Sync()
		_ = writer.Close()
	}
	return logger, closer, nil
}

// ParseLevel maps a config level name onto a zap level. Empty means info.
func ParseLevel(raw string) (zapcore.Level, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	switch name {
	case "":
		return zapcore.InfoLevel, nil
	case "warning":
		name = "warn"
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
