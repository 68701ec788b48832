// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them; services only read, so service
// packages never import net/http.
package requestcontext

import (
	"context"
	"time"

	"proofvault/pkg/domain"
)

type (
	callerKey      struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// WithCaller records the authenticated caller account.
func WithCaller(ctx context.Context, account domain.Account) context.Context {
	return context.WithValue(ctx, callerKey{}, account)
}

// Caller returns the authenticated caller, or ZeroAccount when the request is
// unauthenticated (read paths).
func Caller(ctx context.Context) domain.Account {
	if a, ok := ctx.Value(callerKey{}).(domain.Account); ok {
		return a
	}
	return domain.ZeroAccount
}

// WithRequestID records the correlation id assigned by middleware.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the correlation id, or "" when absent.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithTime pins the request's notion of "now". Tests inject fixed instants
// through it; middleware stamps it at ingress so one request observes one
// clock reading.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// Now returns the request time when pinned, falling back to the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}
