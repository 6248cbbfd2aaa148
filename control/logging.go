// control/logging.go
// Author: momentics <momentics@gmail.com>
//
// Structured logging setup shared by the control layer and the examples.

package control

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// NewLogger returns a structured logger tagged with the given component.
// The level is taken from HIOLOAD_LOG_LEVEL (debug, info, warn, error);
// unset or unrecognized values default to info.
func NewLogger(component string) zerolog.Logger {
	return zerolog.New(os.Stderr).
		Level(levelFromEnv()).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

func levelFromEnv() zerolog.Level {
	switch strings.ToLower(os.Getenv("HIOLOAD_LOG_LEVEL")) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
