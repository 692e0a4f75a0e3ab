// Package logging builds the zerolog logger shared by the server and the cli.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aouyang1/chronos/internal/config"
	"github.com/rs/zerolog"
)

// New creates a logger writing to w, or stdout when w is nil. The console format is meant for
// local runs, everything else logs JSON.
func New(cfg config.LoggingConfig, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("unable to parse log level %q, %w", cfg.Level, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if w == nil {
		w = os.Stdout
	}
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", "chronos").
		Logger(), nil
}
