// logging/logging.go
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/pankajvermacr7/rediskit/sentry"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// SentryHook is a custom hook for zerolog to send logs to Sentry.
type SentryHook struct{}

// Run implements the zerolog Hook interface.
func (h SentryHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	// Only proceed if the level is Error or higher
	if level < zerolog.ErrorLevel {
		return
	}
	eventID := sentry.CaptureMessage(msg)
	if eventID != "" {
		e.Str("sentry_event_id", eventID)
	}
}

// InitLogger configures the global logger from the ENVIRONMENT variable and
// the logging.level setting.
func InitLogger() {
	configureLogLevel()

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    os.Getenv("ENVIRONMENT") == "prod",
	}

	log.Logger = zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger().
		Hook(SentryHook{})
}

func configureLogLevel() {
	env := os.Getenv("ENVIRONMENT")
	if env == "prod" || env == "dev" {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
		return
	}
	zerolog.SetGlobalLevel(ParseLevel(viper.GetString("logging.level")))
}

// ParseLevel maps a configured level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger returns a console logger tagged with the kit component name.
func NewLogger() zerolog.Logger {
	return NewLoggerTo(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})
}

// NewLoggerTo is NewLogger writing to w.
func NewLoggerTo(w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		With().
		Timestamp().
		Str("component", "rediskit").
		Caller().
		Stack().
		Logger().
		Hook(SentryHook{})
}

// LogError reports err to Sentry with a stack trace and logs it at error
// level on the default kit logger.
func LogError(err error, msg string) {
	LogErrorTo(NewLogger(), err, msg)
}

// LogErrorTo is LogError writing to logger.
func LogErrorTo(logger zerolog.Logger, err error, msg string) {
	if err == nil {
		return
	}

	// Ensure we have a stack trace
	if _, ok := err.(stackTracer); !ok {
		err = errors.WithStack(err)
	}

	eventID := sentry.CaptureError(err)

	logger.Error().
		Err(err).
		Str("sentry_event_id", eventID).
		Msg(msg)
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}
