package regcache

import (
	"context"
)

type skipNotifyCtxKey struct{}

// WithSkipNotify returns context with change notifications suppressed.
//
// With such context Set updates stored values without notifying entry
// listeners, which is useful for bulk seeding.
func WithSkipNotify(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipNotifyCtxKey{}, true)
}

// SkipNotify returns true if change notifications are suppressed in context.
func SkipNotify(ctx context.Context) bool {
	_, ok := ctx.Value(skipNotifyCtxKey{}).(bool)
	return ok
}
