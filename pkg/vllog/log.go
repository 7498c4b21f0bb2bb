// Package vllog is the package-level logger shared across VectorLiteDB's
// components: plain stdlib log, matching the teacher's own logging
// register, with a debug gate for the chatty notices (dangling references,
// entries skipped during a rebuild) that should stay quiet by default.
package vllog

import (
	"log"
	"os"
	"sync/atomic"
)

var std = log.New(os.Stderr, "[vectorlitedb] ", log.LstdFlags)

var debugEnabled atomic.Bool

// SetDebug toggles debug-level logging on or off.
func SetDebug(enabled bool) {
	debugEnabled.Store(enabled)
}

// Debugf logs a formatted message only when debug logging is enabled.
func Debugf(format string, args ...any) {
	if debugEnabled.Load() {
		std.Printf("DEBUG "+format, args...)
	}
}

// Printf always logs a formatted message.
func Printf(format string, args ...any) {
	std.Printf(format, args...)
}
