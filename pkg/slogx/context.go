package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// WithLoginID tags every line logged through ctx with the login attempt ID.
func WithLoginID(ctx context.Context, loginID string) context.Context {
	l := FromContext(ctx)
	return WithContext(ctx, l.With("login_id", loginID))
}
