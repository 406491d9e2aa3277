package handlers

import (
	"context"
	"log/slog"
	"time"

	"astro-natal/relay/pkg/audit"
	"astro-natal/relay/pkg/relay/middleware"
	"astro-natal/relay/pkg/telemetry/metrics"
	"astro-natal/relay/pkg/upstream"
)

// Observer bundles the optional outcome sinks every handler reports to.
// Either field may be nil; observation is always best effort and never
// affects the client response.
type Observer struct {
	Metrics *metrics.Collector
	Audit   *audit.Store
}

// observe records one finished request: request metrics, per-attempt
// upstream metrics, and the audit record. Audit writes use a detached
// context so a client disconnect cannot lose the trail.
func (o *Observer) observe(ctx context.Context, operation string, status int, result *upstream.Result, errTag string, err error) {
	if o == nil {
		return
	}

	rec := audit.NewRecord(middleware.GetRequestID(ctx), operation, middleware.GetClientIP(ctx))
	if start := middleware.GetStartTime(ctx); !start.IsZero() {
		rec.ReceivedAt = start.UTC()
	}
	rec.SetOutcome(status, result)
	rec.SetError(errTag, err)
	rec.Finish()

	if o.Metrics != nil {
		o.Metrics.ObserveRequest(operation, status, rec.Latency)
		for _, a := range rec.Attempts {
			o.Metrics.ObserveUpstreamAttempt(a.Style, a.Status, a.Retries, operation)
		}
	}

	if o.Audit != nil {
		storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := o.Audit.Store(storeCtx, rec); err != nil {
			slog.ErrorContext(ctx, "audit store failed",
				"operation", operation,
				"error", err,
			)
		}
	}
}

// attemptsFromError pulls the redacted trace out of taxonomy errors that
// carry one, so failed requests still show up in attempt metrics and audit.
func attemptsFromError(err error) *upstream.Result {
	switch e := err.(type) {
	case *upstream.AuthError:
		return &upstream.Result{Status: e.Status, Attempts: e.Attempts}
	case *upstream.TransientError:
		return &upstream.Result{Status: e.Status, Attempts: e.Attempts}
	default:
		return nil
	}
}
