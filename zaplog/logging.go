// Package zaplog provides a zap implementation of the meshwire.Logger interface.
//
// The adapter maps the Logger's key-value pairs onto zap's sugared API,
// so mesh events land in the application's existing zap pipeline with
// structured fields intact.
//
// # Example Usage
//
//	import (
//	    "github.com/AXI0MH1VE/meshwire"
//	    "github.com/AXI0MH1VE/meshwire/zaplog"
//	    "go.uber.org/zap"
//	)
//
//	func main() {
//	    base, _ := zap.NewProduction()
//	    defer base.Sync()
//
//	    node, err := meshwire.New(meshwire.NewConfig(
//	        meshwire.WithLogger(zaplog.New(base)),
//	    ))
//	    // ...
//	}
package zaplog

import (
	"go.uber.org/zap"

	"github.com/AXI0MH1VE/meshwire"
)

// Logger implements the meshwire.Logger interface on top of a zap logger.
//
// Logger is safe for concurrent use.
type Logger struct {
	sugar *zap.SugaredLogger
}

// Ensure Logger implements meshwire.Logger.
var _ meshwire.Logger = (*Logger)(nil)

// New wraps a zap logger for use as a meshwire.Logger.
// If base is nil, a no-op zap logger is used.
func New(base *zap.Logger) *Logger {
	if base == nil {
		base = zap.NewNop()
	}
	// Skip one frame so call sites inside the node are reported, not the
	// adapter methods below.
	return &Logger{sugar: base.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

// NewDevelopment returns a Logger backed by zap's development
// configuration: human-readable console output at debug level.
func NewDevelopment() (*Logger, error) {
	base, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return New(base), nil
}

// NewProduction returns a Logger backed by zap's production
// configuration: JSON output at info level.
func NewProduction() (*Logger, error) {
	base, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return New(base), nil
}

// Debug implements meshwire.Logger.
func (l *Logger) Debug(msg string, keysAndValues ...any) {
	l.sugar.Debugw(msg, keysAndValues...)
}

// Info implements meshwire.Logger.
func (l *Logger) Info(msg string, keysAndValues ...any) {
	l.sugar.Infow(msg, keysAndValues...)
}

// Warn implements meshwire.Logger.
func (l *Logger) Warn(msg string, keysAndValues ...any) {
	l.sugar.Warnw(msg, keysAndValues...)
}

// Error implements meshwire.Logger.
func (l *Logger) Error(msg string, keysAndValues ...any) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
