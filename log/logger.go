// Package log builds the structured loggers used across turnflow.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// New constructs a JSON slog.Logger preconfigured at info level
func New(service, env, version string) *slog.Logger {
	return NewWithLevel(service, env, version, slog.LevelInfo)
}

// NewWithLevel constructs a JSON slog.Logger at the provided level
func NewWithLevel(service, env, version string, lvl slog.Level) *slog.Logger {
	return NewWithWriter(os.Stdout, service, env, version, lvl)
}

// NewWithWriter constructs a JSON slog.Logger writing to w
func NewWithWriter(w io.Writer, service, env, version string, lvl slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: lvl,
	})
	return slog.New(handler).With(
		slog.String("service", service),
		slog.String("env", env),
		slog.String("version", version))
}

// ParseLevel converts debug, info, warn or error to a slog level; empty means info
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unsupported log level: %s", level)
}
