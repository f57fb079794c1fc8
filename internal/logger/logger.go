// Package logger configures the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup builds the root logger.
//   - level: trace, debug, info, warn, error, fatal, panic
//   - format: "json" for machine consumption, "pretty" for terminals
//
// Logs go to stderr so command output on stdout stays pipeable.
func Setup(level, format string) zerolog.Logger {
	var writer io.Writer = os.Stderr
	if format == "pretty" {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	return zerolog.New(writer).With().Timestamp().Logger()
}
