// Package xlog is the leveled-logging and safe-dumping helper the
// enrollment driver uses for debug tracing. It never lets a password,
// OAuth token, activation code or shared secret reach a log sink in the
// clear.
package xlog

import (
	"log/slog"
	"net/url"

	"github.com/davecgh/go-spew/spew"
)

var sensitiveFormKeys = map[string]bool{
	"password":           true,
	"oauth_token":        true,
	"access_token":       true,
	"activation_code":    true,
	"authenticator_code": true,
	"twofactorcode":      true,
	"shared_secret":      true,
}

// RedactForm returns a copy of form with sensitive keys replaced by a
// fixed placeholder, safe to log.
func RedactForm(form url.Values) url.Values {
	redacted := make(url.Values, len(form))
	for k, v := range form {
		if sensitiveFormKeys[k] {
			redacted[k] = []string{"[REDACTED]"}
			continue
		}
		redacted[k] = v
	}
	return redacted
}

// DumpForm renders a redacted form for debug logging via go-spew.
func DumpForm(form url.Values) string {
	return spew.Sdump(RedactForm(form))
}

// Logger wraps slog.Logger with the redaction helpers above.
type Logger struct {
	*slog.Logger
}

// New returns a Logger over slog's default logger.
func New() *Logger {
	return &Logger{Logger: slog.Default()}
}

// DebugRequest logs an outbound request at debug level with its form
// redacted.
func (l *Logger) DebugRequest(method, rawURL string, form url.Values) {
	l.Debug("steam request", "method", method, "url", rawURL, "form", DumpForm(form))
}

// DebugResponse logs a completed request's outcome at debug level. body
// is never logged in full; callers pass its length instead.
func (l *Logger) DebugResponse(method, rawURL string, bodyLen int, err error) {
	if err != nil {
		l.Debug("steam response", "method", method, "url", rawURL, "error", err)
		return
	}
	l.Debug("steam response", "method", method, "url", rawURL, "bytes", bodyLen)
}
