package logging

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	policySetKey contextKey = "policy_set"
)

// WithRequestID returns a context carrying the request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID extracts the request id from the context, or "" if absent.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithPolicySet returns a context carrying the policy set name.
func WithPolicySet(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, policySetKey, name)
}

// PolicySet extracts the policy set name from the context, or "" if absent.
func PolicySet(ctx context.Context) string {
	if name, ok := ctx.Value(policySetKey).(string); ok {
		return name
	}
	return ""
}

// contextHandler decorates a slog handler, attaching request-scoped fields
// from the context to every record logged with a Context variant.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if id := RequestID(ctx); id != "" {
		rec.AddAttrs(slog.String("request_id", id))
	}
	if name := PolicySet(ctx); name != "" {
		rec.AddAttrs(slog.String("policy_set", name))
	}
	return h.Handler.Handle(ctx, rec)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}
