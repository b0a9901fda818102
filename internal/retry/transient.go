package retry

import "strings"

// transientPatterns are error substrings that indicate a failure talking to
// a package registry or VCS remote that may succeed on retry: network
// timeouts, connection resets, and rate-limit/service-unavailable responses.
// Authentication and validation failures are never in this list.
var transientPatterns = []string{
	"connection refused",
	"connection reset by peer",
	"i/o timeout",
	"tls handshake timeout",
	"no such host",
	"network is unreachable",
	"temporary failure in name resolution",
	"context deadline exceeded",
	"econnreset",
	"etimedout",
	"eai_again",
	"503",
	"service unavailable",
	"429",
	"too many requests",
}

// IsTransientError reports whether err's message matches a known transient
// failure pattern.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
