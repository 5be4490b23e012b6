// Package corelog wraps the standard library's log package with the
// [component]/[TIMING]-prefixed style used throughout the pipeline, plus the
// redaction spec.md §7 requires before a line ever reaches a log file:
// emails, IP addresses, and long opaque tokens are scrubbed first.
package corelog

import (
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"time"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	ipPattern    = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	// tokenPattern matches long opaque runs of letters/digits/_/- (API keys,
	// hashes, JWT segments) that are unlikely to be meaningful file paths.
	tokenPattern = regexp.MustCompile(`\b[A-Za-z0-9_\-]{24,}\b`)
)

// Logger writes sanitized, prefixed lines for one subsystem.
type Logger struct {
	prefix string
	std    *log.Logger
}

// New returns a Logger tagging every line with "[prefix] ".
func New(prefix string) *Logger {
	return &Logger{
		prefix: prefix,
		std:    log.New(os.Stderr, "", log.LstdFlags),
	}
}

// NewWithWriter returns a Logger writing to w, for test capture.
func NewWithWriter(prefix string, w io.Writer) *Logger {
	return &Logger{
		prefix: prefix,
		std:    log.New(w, "", log.LstdFlags),
	}
}

func redact(s string) string {
	s = emailPattern.ReplaceAllString(s, "[redacted-email]")
	s = ipPattern.ReplaceAllString(s, "[redacted-ip]")
	s = tokenPattern.ReplaceAllString(s, "[redacted-token]")
	return s
}

// Printf logs a formatted, sanitized, prefixed line.
func (l *Logger) Printf(format string, args ...any) {
	l.std.Printf("[%s] %s", l.prefix, redact(fmt.Sprintf(format, args...)))
}

// Println logs a sanitized, prefixed line.
func (l *Logger) Println(args ...any) {
	l.std.Println("[" + l.prefix + "] " + redact(fmt.Sprintln(args...)))
}

// Timing logs a phase's elapsed duration, matching the pipeline's
// "[TIMING] <phase>: <duration>" convention.
func (l *Logger) Timing(phase string, start time.Time) {
	l.Printf("[TIMING] %s: %v", phase, time.Since(start))
}

// Warnf logs a recovered, non-fatal warning (e.g. a per-file parse error).
func (l *Logger) Warnf(format string, args ...any) {
	l.Printf("warning: "+format, args...)
}
