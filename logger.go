package g3d

import (
	"log/slog"
	"sync/atomic"
)

var (
	silent    = slog.New(slog.DiscardHandler)
	loggerPtr atomic.Pointer[slog.Logger]
)

func init() {
	loggerPtr.Store(silent)
}

// SetLogger sets the package logger, used by sessions created without
// WithLogger. By default g3d produces no log output. Pass nil to restore
// silence.
//
// SetLogger is safe for concurrent use. Sessions pick the logger up when
// they are created.
//
// Log levels used by g3d:
//   - [slog.LevelDebug]: tasks queued and run per frame
//   - [slog.LevelInfo]: session lifecycle (backend chosen, session closed)
//   - [slog.LevelWarn]: failed tasks and frames
//
// Example:
//
//	g3d.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	loggerPtr.Store(l)
}

// Logger returns the package logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
