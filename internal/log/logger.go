package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. Production writes JSON lines at info level;
// every other environment gets the colored console writer at debug level.
func New(environment string) zerolog.Logger {
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	level := zerolog.DebugLevel
	if environment == "production" {
		out = os.Stdout
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(level)

	return zerolog.New(out).With().
		Timestamp().
		Str("service", "propertyhub").
		Str("env", environment).
		Logger()
}

// Component returns a child logger tagged with the component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
