package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. DEV gets a human readable console writer,
// anything else gets JSON lines. Unknown levels fall back to info.
func New(env, level string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if env == "DEV" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
