// Package requestcontext provides transport-independent accessors for
// request-scoped values.
//
// Services read the values; whatever drives them (an HTTP layer, a worker,
// a test) sets them:
//
//	ctx = requestcontext.WithRequestID(ctx, "req-123")
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	now := requestcontext.Now(ctx)
package requestcontext

import (
	"context"
	"time"

	id "pcms/pkg/domain"
)

type (
	userIDKey      struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyUserID      = userIDKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// UserID returns the acting user, or the nil ID when unset.
func UserID(ctx context.Context) id.UserID {
	if userID, ok := ctx.Value(ContextKeyUserID).(id.UserID); ok {
		return userID
	}
	return id.UserID{}
}

// WithUserID injects the acting user into the context.
func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// RequestID returns the correlation id, or "" when unset.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a correlation id into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now returns the request-scoped time, falling back to the wall clock.
// Stamps are taken in UTC.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t.UTC()
	}
	return time.Now().UTC()
}

// WithTime pins the request time. Useful for:
//   - service tests asserting on timestamps
//   - workers that need one consistent time across a batch
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
