// Package logger provides trace logging for the gitcred helper.
// Tracing is enabled with the GCM_TRACE environment variable and writes to
// stderr so it never mixes with the credential dictionary on stdout. Secret
// values are masked unless GCM_TRACE_SECRETS is also set.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	secrets bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables trace logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if tracing is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetTraceSecrets controls whether Redact passes secrets through. Off by
// default; only GCM_TRACE_SECRETS turns it on.
func SetTraceSecrets(v bool) {
	mu.Lock()
	defer mu.Unlock()
	secrets = v
}

// SetOutput sets the output writer for trace logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Redact returns the value if secret tracing is enabled, a fixed mask
// otherwise. Empty values stay empty so traces still show absence.
func Redact(secret string) string {
	mu.RLock()
	defer mu.RUnlock()
	if secret == "" || secrets {
		return secret
	}
	return "********"
}

// Debug prints a message if tracing is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "[DEBUG] "+format+"\n", args...)
	}
}

// Info prints an informational message if tracing is enabled.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "[INFO] "+format+"\n", args...)
	}
}

// Warn prints a warning message if tracing is enabled.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "[WARN] "+format+"\n", args...)
	}
}
