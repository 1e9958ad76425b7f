package cliutil

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger to satisfy sim.EventLogger, decoupling
// the driver's debug trail from any particular logging library.
type Logger struct {
	zl zerolog.Logger
}

// NewLogger builds a Logger writing human-readable console output to w
// when verbose is true, and a disabled logger (Debug is a no-op)
// otherwise.
func NewLogger(w io.Writer, verbose bool) Logger {
	if !verbose {
		return Logger{zl: zerolog.Nop()}
	}
	if w == nil {
		w = os.Stderr
	}
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	return Logger{zl: zerolog.New(console).With().Timestamp().Logger()}
}

// Debug implements sim.EventLogger.
func (l Logger) Debug(format string, args ...interface{}) {
	l.zl.Debug().Msg(fmt.Sprintf(format, args...))
}
