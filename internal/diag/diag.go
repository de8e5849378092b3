// Package diag hosts the firmware's off-wire diagnostics: a
// structured boot/event logger and the cant_happen sink for invariant
// violations. It never touches the protocol transport -- the wire
// stays raw ACK/NAK bytes -- this is the log a developer tails over a
// separate debug console. The slog+tint pairing is grounded on
// acmCSUFDev-christmas's LED controller daemon, which wires the same
// two packages for structured console logs.
package diag

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// Logger wraps a slog.Logger with the cant_happen sink required by
// the error-handling design: an invariant violation must never panic
// the main loop, only get logged (and optionally trip a caller-
// supplied recovery action, e.g. a watchdog reset or a status LED).
type Logger struct {
	log        *slog.Logger
	cantHappen func(code string)
}

// New returns a Logger writing tint-formatted lines to w. A nil w
// defaults to os.Stderr.
func New(w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	handler := tint.NewHandler(w, &tint.Options{Level: slog.LevelDebug})
	return &Logger{
		log:        slog.New(handler),
		cantHappen: func(string) {},
	}
}

// SetCantHappenSink installs the action to run when an invariant
// violation is reported, in addition to logging it. The default is a
// no-op, matching the spec's "default is a no-op" requirement.
func (l *Logger) SetCantHappenSink(sink func(code string)) {
	if sink == nil {
		sink = func(string) {}
	}
	l.cantHappen = sink
}

// CantHappen logs an invariant violation and invokes the installed
// sink. It never panics.
func (l *Logger) CantHappen(code string, args ...any) {
	l.log.Error("cant_happen", append([]any{"code", code}, args...)...)
	l.cantHappen(code)
}

// Boot logs a boot-time informational event.
func (l *Logger) Boot(msg string, args ...any) {
	l.log.Info(msg, args...)
}

// Debug logs a low-level diagnostic event. The DBG command does not
// call it: the DBG wire reply is built from the pool/protocol state
// directly, not from log lines.
func (l *Logger) Debug(msg string, args ...any) {
	l.log.Debug(msg, args...)
}

// Error logs a recoverable error, e.g. a preferences codec failure.
func (l *Logger) Error(msg string, err error, args ...any) {
	l.log.Error(msg, append([]any{"err", err}, args...)...)
}
