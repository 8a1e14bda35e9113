// Package logger holds the process-wide structured logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Log is replaced by Initialize; call sites always read it fresh.
var Log *slog.Logger

func init() {
	Initialize("info", false)
}

// Initialize points the global logger at stdout.
func Initialize(level string, useJSON bool) {
	InitializeWriter(os.Stdout, level, useJSON)
}

// InitializeWriter is Initialize with an explicit destination. The CLI logs to
// stderr so command output on stdout stays clean.
func InitializeWriter(w io.Writer, level string, useJSON bool) {
	Log = New(w, level, useJSON)
	slog.SetDefault(Log)
}

// New builds a logger without touching the global one.
func New(w io.Writer, level string, useJSON bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level), AddSource: true}
	if useJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// parseLevel accepts slog's level names plus "warning". Anything else is info.
func parseLevel(level string) slog.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return l
}
