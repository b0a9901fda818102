package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/monopub/engine/cmd"
	"github.com/monopub/engine/internal/signal"
	"github.com/monopub/engine/internal/telemetry"
	"github.com/monopub/engine/internal/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	// IMPORTANT: defer order matters. RecoverAndPanic must be deferred
	// first so it executes last, after cleanup() has flushed events.
	defer telemetry.RecoverAndPanic()
	cleanup := telemetry.Init(cmd.Version)
	defer cleanup()

	if err := cmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			signal.PrintCancellationMessage("monopub")
			return 130
		}
		telemetry.CaptureError(err)
		fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render(capitalize(err.Error())))
		return 1
	}
	return 0
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
