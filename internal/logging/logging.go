// Package logging sets up the slog handler shared by the command line tools.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// New returns a logger writing to stderr, coloured when stderr is a
// terminal.
func New(verbose bool) *slog.Logger {
	return NewWithWriter(colorable.NewColorable(os.Stderr), verbose, !isatty.IsTerminal(os.Stderr.Fd()))
}

func NewWithWriter(w io.Writer, verbose bool, noColor bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	}))
}

// Fatal logs msg at error level and exits with status 1.
func Fatal(logger *slog.Logger, msg string, args ...any) {
	logger.Error(msg, args...)
	os.Exit(1)
}
