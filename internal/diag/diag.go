// Package diag is the debug-logging facility behind the :debug directive
// and -D flag (spec §4.6/§6, supplemented from original_source/src/common/debug.c).
package diag

import (
	"fmt"
	"log"
	"os"
)

// Logger wraps a stdlib *log.Logger with an enabled switch, matching the
// density of fzf's own error-reporting helpers (src/tui/tui.go's errorExit)
// rather than pulling in a structured-logging library the teacher never
// reaches for.
type Logger struct {
	enabled bool
	l       *log.Logger
}

// New returns a Logger that writes to w when enabled is true, and is a
// silent no-op otherwise.
func New(w *os.File, enabled bool) *Logger {
	return &Logger{enabled: enabled, l: log.New(w, "wk: ", log.Ltime|log.Lmicroseconds)}
}

func (d *Logger) Enabled() bool { return d != nil && d.enabled }

func (d *Logger) Printf(format string, args ...any) {
	if !d.Enabled() {
		return
	}
	d.l.Printf(format, args...)
}

func (d *Logger) Println(args ...any) {
	if !d.Enabled() {
		return
	}
	d.l.Println(args...)
}

// Fatal reports a fatal configuration or I/O error and exits with
// EX_DATAERR-style status. Grounded on src/tui/tui.go's errorExit.
func Fatal(status int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "wk: "+format+"\n", args...)
	os.Exit(status)
}
