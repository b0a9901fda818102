// Package telemetry reports unexpected pipeline errors and panics to Sentry,
// scrubbing obvious PII (home paths, registry tokens, emails) before anything
// leaves the process. Entirely opt-in via a build-time or environment DSN.
package telemetry

import (
	"context"
	"net/http"
	"os"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	flushTimeout      = 2 * time.Second
	httpClientTimeout = 10 * time.Second
	maxBreadcrumbs    = 20
)

var (
	homePathPattern = regexp.MustCompile(`(?i)(/home/|/Users/|C:\\Users\\)([^/\\:]+)`)
	tokenPattern    = regexp.MustCompile(`(?i)(npm_|registry[_-]?token[=:]\s*)([A-Za-z0-9_-]{10,})`)
	emailPattern    = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
)

// DSN is injected at build time via ldflags for production releases.
// Example: go build -ldflags "-X github.com/monopub/engine/internal/telemetry.DSN=https://..."
// Empty by default (disabled in dev builds).
var DSN string

// Init initializes the Sentry SDK with the engine's version string and
// returns a cleanup function that should be deferred. Respects the
// DO_NOT_TRACK convention and an engine-specific opt-out.
func Init(version string) func() {
	if os.Getenv("DO_NOT_TRACK") == "1" || os.Getenv("MONOPUB_NO_TELEMETRY") == "1" {
		return func() {}
	}

	dsn := os.Getenv("SENTRY_DSN")
	if dsn == "" {
		dsn = DSN
	}
	if dsn == "" {
		return func() {}
	}

	env := os.Getenv("SENTRY_ENVIRONMENT")
	if env == "" {
		env = "production"
	}

	serverName := runtime.GOOS + "-" + runtime.GOARCH

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Release:          "monopub-engine@" + version,
		Environment:      env,
		ServerName:       serverName,
		AttachStacktrace: true,
		SampleRate:       1.0,
		Debug:            env == "development",
		MaxBreadcrumbs:   maxBreadcrumbs,
		HTTPClient: &http.Client{
			Timeout: httpClientTimeout,
		},
		IgnoreErrors: []string{
			"context canceled",
			"context deadline exceeded",
			"signal: interrupt",
			"signal: terminated",
			"EOF",
			"broken pipe",
		},
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			if hint != nil && hint.OriginalException != nil {
				errMsg := hint.OriginalException.Error()
				if strings.Contains(errMsg, "interrupt") ||
					strings.Contains(errMsg, "context canceled") ||
					strings.Contains(errMsg, "terminated") ||
					strings.Contains(errMsg, "dry run") {
					return nil
				}
			}
			if event.Message != "" {
				msg := strings.ToLower(event.Message)
				if strings.Contains(msg, "interrupt") || strings.Contains(msg, "context canceled") {
					return nil
				}
			}
			scrubEvent(event)
			return event
		},
		BeforeBreadcrumb: func(breadcrumb *sentry.Breadcrumb, hint *sentry.BreadcrumbHint) *sentry.Breadcrumb {
			breadcrumb.Message = scrubPII(breadcrumb.Message)
			return breadcrumb
		},
	})
	if err != nil {
		return func() {}
	}

	return func() {
		sentry.Flush(flushTimeout)
	}
}

// CaptureError reports an error to Sentry if initialized. Safe to call even
// if telemetry is disabled.
func CaptureError(err error) {
	if err == nil {
		return
	}
	sentry.CaptureException(err)
}

// CaptureMessage reports a message to Sentry if initialized.
func CaptureMessage(msg string) {
	sentry.CaptureMessage(msg)
}

// RecoverAndPanic recovers from a panic, reports it, then re-panics so the
// CLI still surfaces it. Must be deferred before Init's cleanup function so
// Flush runs before the re-panic unwinds further.
func RecoverAndPanic() {
	if r := recover(); r != nil {
		sentry.CurrentHub().RecoverWithContext(context.Background(), r)
		sentry.Flush(flushTimeout)
		panic(r)
	}
}

// AddBreadcrumb records one step of a pipeline run for later error context.
func AddBreadcrumb(category, message string) {
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Category:  category,
		Message:   message,
		Level:     sentry.LevelInfo,
		Timestamp: time.Now(),
	})
}

// SetUser tags events with the authenticated registry user.
func SetUser(id string) {
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetUser(sentry.User{ID: id})
	})
}

// SetTag sets a scrubbed tag for filtering errors (e.g. "package", "registry").
func SetTag(key, value string) {
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag(key, scrubPII(value))
	})
}

// scrubPII removes home directory usernames, registry tokens, and email
// addresses from a string before it's sent to Sentry.
func scrubPII(s string) string {
	s = homePathPattern.ReplaceAllString(s, "${1}[user]")
	s = tokenPattern.ReplaceAllString(s, "${1}[REDACTED]")
	s = emailPattern.ReplaceAllString(s, "[email]")
	return s
}

func scrubEvent(event *sentry.Event) {
	event.Message = scrubPII(event.Message)

	for i := range event.Exception {
		event.Exception[i].Value = scrubPII(event.Exception[i].Value)
		if event.Exception[i].Stacktrace != nil {
			for j := range event.Exception[i].Stacktrace.Frames {
				frame := &event.Exception[i].Stacktrace.Frames[j]
				frame.AbsPath = scrubPII(frame.AbsPath)
				frame.Filename = scrubPII(frame.Filename)
			}
		}
	}

	for i := range event.Breadcrumbs {
		event.Breadcrumbs[i].Message = scrubPII(event.Breadcrumbs[i].Message)
	}

	for key, value := range event.Extra {
		if str, ok := value.(string); ok {
			event.Extra[key] = scrubPII(str)
		}
	}

	for key, value := range event.Tags {
		event.Tags[key] = scrubPII(value)
	}
}
