package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger. Debug level is enabled when verbose is set so
// per-item skips become visible.
func New(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Nop discards everything; stages fall back to it when no logger is given.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
