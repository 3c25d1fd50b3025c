// Package api runs admin operations with the session recovery policy: one
// refresh and one retry on 401, and every failure mapped to an AppError.
package api

import (
	"context"
	"time"

	"github.com/jrsteele09/vpn-admin/apiclient"
	"github.com/jrsteele09/vpn-admin/auth"
	"github.com/jrsteele09/vpn-admin/internal/utils"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/jrsteele09/vpn-admin/api"

// SessionRefresher is the part of the session manager the wrapper needs.
// *auth.Manager satisfies it.
type SessionRefresher interface {
	Refresh(ctx context.Context) (auth.Session, error)
	ExpireSession(reason string)
}

// Caller carries the dependencies shared by every Call.
type Caller struct {
	session SessionRefresher
	tokens  apiclient.TokenSource
	tracer  trace.Tracer
}

type CallerOption func(*Caller)

func WithTracer(t trace.Tracer) CallerOption {
	return func(c *Caller) {
		c.tracer = t
	}
}

// NewCaller builds a Caller. tokens is read before each operation so a refresh
// completed by another goroutine while the operation ran is not repeated.
func NewCaller(session SessionRefresher, tokens apiclient.TokenSource, options ...CallerOption) *Caller {
	c := &Caller{
		session: session,
		tokens:  tokens,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Operation is a single request against the admin API.
type Operation[T any] func(ctx context.Context) (T, error)

type operationNameKey struct{}

// WithOperationName labels the span and log lines of Calls made with ctx.
func WithOperationName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, operationNameKey{}, name)
}

func operationName(ctx context.Context) string {
	if name, ok := ctx.Value(operationNameKey{}).(string); ok && name != "" {
		return name
	}
	return "api.Call"
}

// Call invokes op. A 401 triggers one session refresh followed by exactly one
// more invocation; a failed refresh ends the session with KindSessionExpired.
// Every other failure is returned as *AppError and never retried.
func Call[T any](ctx context.Context, c *Caller, op Operation[T]) (T, error) {
	name := operationName(ctx)
	ctx, span := c.tracer.Start(ctx, name)
	defer span.End()
	start := time.Now()

	tokenBefore := c.currentToken()
	result, err := op(ctx)
	if err == nil {
		logCall(name, start, 1, nil)
		return result, nil
	}

	if !apiclient.IsUnauthorized(err) {
		return fail[T](span, name, start, 1, err)
	}

	switch current := c.currentToken(); {
	case current == tokenBefore:
		span.AddEvent("refresh")
		if _, refreshErr := c.session.Refresh(ctx); refreshErr != nil {
			c.session.ExpireSession("session expired")
			return fail[T](span, name, start, 1, sessionExpired(refreshErr))
		}
	case current == "":
		// A concurrent refresh already failed and cleared the session.
		span.AddEvent("session cleared concurrently")
		return fail[T](span, name, start, 1, sessionExpired(err))
	default:
		span.AddEvent("token rotated concurrently")
	}

	result, err = op(ctx)
	if err != nil {
		return fail[T](span, name, start, 2, err)
	}
	logCall(name, start, 2, nil)
	return result, nil
}

func (c *Caller) currentToken() string {
	if c.tokens == nil {
		return ""
	}
	tok, err := c.tokens.AccessToken()
	if err != nil {
		return ""
	}
	return utils.Value(tok)
}

func fail[T any](span trace.Span, name string, start time.Time, attempts int, err error) (T, error) {
	var zero T
	appErr := ToAppError(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, appErr.Kind.String())
	span.SetAttributes(
		attribute.String("vpnadmin.error_kind", appErr.Kind.String()),
		attribute.Int("vpnadmin.attempts", attempts),
	)
	logCall(name, start, attempts, appErr)
	return zero, appErr
}

func logCall(name string, start time.Time, attempts int, appErr *AppError) {
	event := log.Debug()
	if appErr != nil {
		event = event.Str("kind", appErr.Kind.String()).Int("status", appErr.StatusCode)
	}
	event.Str("operation", name).Int("attempts", attempts).Dur("elapsed", time.Since(start)).Msg("api call")
}
