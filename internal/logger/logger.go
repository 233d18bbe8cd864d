package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level picks the console level from the command line switches. Warnings
// and errors are always shown.
func Level(verbose, debug bool) zerolog.Level {
	switch {
	case debug:
		return zerolog.DebugLevel
	case verbose:
		return zerolog.InfoLevel
	}
	return zerolog.WarnLevel
}

// Init returns a console logger writing to w (stderr when nil).
func Init(w io.Writer, level zerolog.Level) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    w != os.Stderr,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}
