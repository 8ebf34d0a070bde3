// Package buildlog provides the rotating, subsystem-tagged logging backend
// shared by every Turbine package. It is adapted from the root-logger
// plumbing dcrlnd's build package exposes to log.go (SetupLoggers,
// AddSubLogger) but trimmed to what a single-process payout engine needs:
// one rotating file plus stdout, and per-subsystem slog.Logger instances.
package buildlog

import (
	"os"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// Disabled is the backend every package-level logger defaults to before
// SetupLoggers wires in the real root logger, matching the teacher's
// pattern of declaring loggers safe-by-default at package init time.
var Disabled = slog.Disabled

// RotatingLogWriter implements io.Writer and the slog.Backend source,
// sending output to both stdout and a rotated log file once initialized.
type RotatingLogWriter struct {
	backend *slog.Backend
	rotator *rotator.Rotator
}

// NewRotatingLogWriter returns a writer that only logs to stdout until
// InitLogRotator is called, mirroring the teacher's pattern of allowing
// package-level loggers to be declared before the log file is known.
func NewRotatingLogWriter() *RotatingLogWriter {
	w := &RotatingLogWriter{}
	w.backend = slog.NewBackend(w)
	return w
}

// Write implements io.Writer, satisfying slog.Backend's io.Writer source.
func (w *RotatingLogWriter) Write(b []byte) (int, error) {
	os.Stdout.Write(b)
	if w.rotator != nil {
		w.rotator.Write(b)
	}
	return len(b), nil
}

// InitLogRotator opens (creating if necessary) the log file at logFile and
// begins rotating it once it exceeds maxRollMB, keeping at most maxRolls
// historical files. Must be called once during startup before any
// meaningful log volume is expected.
func (w *RotatingLogWriter) InitLogRotator(logFile string, maxRollMB, maxRolls int) error {
	r, err := rotator.New(logFile, int64(maxRollMB*1024), false, maxRolls)
	if err != nil {
		return err
	}
	w.rotator = r
	return nil
}

// GenSubLogger returns a new slog.Logger tagged with subsystem, backed by
// this writer.
func (w *RotatingLogWriter) GenSubLogger(subsystem string) slog.Logger {
	return w.backend.Logger(subsystem)
}

// Close flushes and closes the underlying rotator, if any.
func (w *RotatingLogWriter) Close() {
	if w.rotator != nil {
		w.rotator.Close()
	}
}
