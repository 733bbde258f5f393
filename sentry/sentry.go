// sentry/sentry.go
package sentry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"
)

var flushTimeout = 2 * time.Second

func Init(config SentryConfig) error {
	if !config.IsEnabled {
		log.Warn().Msg("Sentry is disabled")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:                config.DSN,
		Environment:        config.Environment,
		Release:            config.Release,
		Debug:              config.Debug,
		TracesSampleRate:   config.TracesSampleRate,
		ProfilesSampleRate: config.ProfilesSampleRate,
		AttachStacktrace:   true,
		EnableTracing:      config.EnableTracing,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			if hint != nil && hint.OriginalException != nil {
				log.Debug().
					Err(hint.OriginalException).
					Str("sentry_event_id", string(event.EventID)).
					Msg("Sentry event captured")
			}
			return event
		},
	})

	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}

	return nil
}

// Enabled reports whether a Sentry client has been initialized.
func Enabled() bool {
	return sentry.CurrentHub().Client() != nil
}

func CaptureError(err error) string {
	if err == nil || !Enabled() {
		return ""
	}
	eventID := sentry.CaptureException(err)
	Flush()
	return idString(eventID)
}

// CaptureCommandError reports a failed Redis command with the command and
// key attached as tags.
func CaptureCommandError(err error, command, key string) string {
	if err == nil || !Enabled() {
		return ""
	}

	var eventID *sentry.EventID
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("redis.command", command)
		if key != "" {
			scope.SetTag("redis.key", key)
		}
		eventID = sentry.CaptureException(err)
	})
	return idString(eventID)
}

func CaptureMessage(message string) string {
	if !Enabled() {
		return ""
	}
	eventID := sentry.CaptureMessage(message)
	Flush()
	return idString(eventID)
}

func Flush() {
	sentry.Flush(flushTimeout)
}

// Close flushes buffered events. It is safe to defer from main; panics are
// left to propagate.
func Close() {
	Flush()
}

func idString(id *sentry.EventID) string {
	if id == nil {
		return ""
	}
	return string(*id)
}
