package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// LevelNone sits above slog.LevelError so a handler configured with it
// emits no records at all. "none" is the default log level: workers log
// only when explicitly asked to.
const LevelNone = slog.Level(16)

// logLevels maps the accepted LOG_LEVEL values to slog levels.
var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
	"none":  LevelNone,
}

// ParseLogLevel converts a LOG_LEVEL configuration value to a slog level.
func ParseLogLevel(name string) (slog.Level, error) {
	level, ok := logLevels[name]
	if !ok {
		return 0, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}

// NewLogger builds the process logger for the configured level, writing
// JSON records to stderr. At level "none" the output is discarded entirely.
func NewLogger(levelName string) (*slog.Logger, error) {
	level, err := ParseLogLevel(levelName)
	if err != nil {
		return nil, err
	}
	var w io.Writer = os.Stderr
	if level == LevelNone {
		w = io.Discard
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), nil
}
