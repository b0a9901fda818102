// Package logging configures the engine's structured operational logger:
// log/slog with a JSON handler, matching the teacher's apps/parser/main.go.
package logging

import (
	"log/slog"
	"os"
)

// New builds a JSON slog.Logger writing to stderr. debug raises the level
// to Debug; otherwise the engine logs at Info and above.
func New(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
