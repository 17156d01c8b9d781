// Package logutil wires zerolog for the pipeline and CLI, in the style of
// the rest of the application's per-subsystem sub-loggers.
package logutil

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger for console (human) or plain
// JSON output.
func Setup(console bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if console {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// RunLogger returns a logger with a non-deterministic run_trace_id field
// attached for log correlation across one pipeline invocation. The trace
// ID never enters the manifest or any hashed artifact.
func RunLogger(runTraceID string) zerolog.Logger {
	return log.With().Str("run_trace_id", runTraceID).Logger()
}
