package logger

import (
	"context"
	"log/slog"
)

type (
	contextKey struct{}
	attrsKey   struct{}
)

// WithLogger returns a copy of ctx carrying l.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// WithAttrs returns a copy of ctx whose loggers also tag records with attrs.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	prev := requestAttrs(ctx)
	merged := make([]slog.Attr, 0, len(prev)+len(attrs))
	merged = append(merged, prev...)
	merged = append(merged, attrs...)
	return context.WithValue(ctx, attrsKey{}, merged)
}

// FromContext returns the logger stored in ctx, or slog.Default(), tagged
// with the request attributes in ctx.
func FromContext(ctx context.Context) *slog.Logger {
	l := slog.Default()
	if ctx != nil {
		if stored, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && stored != nil {
			l = stored
		}
	}
	return tag(ctx, l)
}

// FromContextOrDefault returns fallback tagged with the request attributes in
// ctx. Components pass their own logger so their attributes survive. A nil
// fallback resolves to FromContext(ctx).
func FromContextOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if fallback == nil {
		return FromContext(ctx)
	}
	return tag(ctx, fallback)
}

func tag(ctx context.Context, l *slog.Logger) *slog.Logger {
	attrs := requestAttrs(ctx)
	if len(attrs) == 0 {
		return l
	}
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return l.With(args...)
}

func requestAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	attrs, _ := ctx.Value(attrsKey{}).([]slog.Attr)
	return attrs
}
