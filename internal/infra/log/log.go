package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/roadtour/internal/config"
)

type Logger = zerolog.Logger

// NewLogger builds the process logger from the logging section: JSON lines on
// stderr, or a console writer when pretty is set. Unknown levels fall back to
// info.
func NewLogger(cfg config.Config) Logger {
	return New(os.Stderr, cfg.Logging.Level, cfg.Logging.Pretty)
}

// New is NewLogger with an explicit destination.
func New(w io.Writer, level string, pretty bool) Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	if pretty {
		w = zerolog.ConsoleWriter{Out: w}
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Str("app", "roadtour").Logger()
}

// Nop returns a disabled logger for tests and library callers.
func Nop() Logger { return zerolog.Nop() }
