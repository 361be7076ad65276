package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init installs the default slog logger for service. format is "json"
// (default) or "text"; level is debug, info (default), warn or error.
func Init(service, format, level string) *slog.Logger {
	logger := New(os.Stdout, service, format, level)
	slog.SetDefault(logger)

	format = strings.ToLower(strings.TrimSpace(format))
	if format != "" && format != "json" && format != "text" {
		logger.Warn("unknown log format, defaulting to json", "format", format)
	}
	if _, ok := ParseLevel(level); !ok {
		logger.Warn("unknown log level, defaulting to info", "level", level)
	}
	return logger
}

// New builds a logger writing to w without touching the default logger.
func New(w io.Writer, service, format, level string) *slog.Logger {
	lvl, _ := ParseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With("service", service)
}

// ParseLevel maps a level name to slog.Level. Unknown names yield info and false.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
