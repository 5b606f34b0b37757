package sentry

import (
	"context"
	"fmt"
	"time"

	"github.com/croustipeze/cookbook/internal/errors"
	"github.com/getsentry/sentry-go"
)

// Init initializes Sentry with the provided configuration.
// If DSN is empty, Sentry initialization is skipped and nil is returned.
func Init(dsn, env, serviceName, serviceVersion string) error {
	if dsn == "" {
		return nil
	}

	options := sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      env,
		ServerName:       serviceName,
		Release:          serviceVersion,
		AttachStacktrace: true,
		TracesSampleRate: 0.0, // Disable Sentry tracing, use OpenTelemetry instead
	}

	if err := sentry.Init(options); err != nil {
		return fmt.Errorf("failed to initialize Sentry: %w", err)
	}

	return nil
}

// Flush waits for all pending Sentry events to be sent.
// Call this during graceful shutdown.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}

// Recover captures a panic and forwards it to Sentry. It must be deferred
// directly, as in defer sentry.Recover().
func Recover() {
	if err := recover(); err != nil {
		sentry.CurrentHub().Recover(err)
		sentry.Flush(2 * time.Second)
	}
}

// ShouldReport reports whether err is worth an event. Operational
// AppErrors (bad input, busy, upstream outages) are expected and skipped.
func ShouldReport(err error) bool {
	if err == nil {
		return false
	}
	if appErr, ok := errors.As(err); ok {
		return !appErr.IsOperational
	}
	return true
}

// CaptureError sends err to the hub attached to ctx, or the current hub,
// when ShouldReport allows it.
func CaptureError(ctx context.Context, err error) {
	if !ShouldReport(err) {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}
