package orrery

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards all records. Enabled reports false so callers skip
// attribute formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr is atomic because texture loaders report from their own goroutines.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger used by orrery and its backends.
// By default nothing is logged. Pass nil to restore silence.
//
// Levels:
//   - [slog.LevelDebug]: per-frame stats, rotations
//   - [slog.LevelInfo]: lifecycle (textures ready, first frame)
//   - [slog.LevelWarn]: absorbed input errors (unknown axis, bad texture unit)
//   - [slog.LevelError]: failed texture loads
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. Backend packages log through it so a
// single SetLogger call configures everything.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
