package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup initializes the global logger.
// - debugMode or DEBUG=true (case-insensitive) selects debug level
// - ENVIRONMENT=development switches to the human-friendly console writer
// - Caller() is enabled so poll attempts can be traced to the check that issued them
func Setup(debugMode bool) {
	SetupWithWriter(debugMode, nil)
}

// SetupWithWriter is Setup with an explicit output, used by tests to capture log lines
func SetupWithWriter(debugMode bool, out io.Writer) {
	switch {
	case out != nil:
		log.Logger = zerolog.New(out)
	case os.Getenv("ENVIRONMENT") == "development":
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	if debugMode || strings.EqualFold(os.Getenv("DEBUG"), "true") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Logger = log.With().
		Str("service", "trapcheck").
		Timestamp().
		Caller().
		Logger()
}

// Get returns the global logger
func Get() zerolog.Logger {
	return log.Logger
}

// Check returns a logger tagged with the check being run
func Check(name string) zerolog.Logger {
	return log.With().Str("check", name).Logger()
}
