package regcache

import (
	"context"
	"time"
)

// detachedContext keeps context values of its parent while dropping deadline
// and cancellation. Notification tasks outlive the Set call that spawned
// them, so the caller's cancellation must not cross the async boundary.
type detachedContext struct {
	ctx context.Context
}

func (dctx detachedContext) Deadline() (deadline time.Time, ok bool) {
	return time.Time{}, false
}

func (dctx detachedContext) Done() <-chan struct{} {
	return nil
}

func (dctx detachedContext) Err() error {
	return nil
}

func (dctx detachedContext) Value(key interface{}) interface{} {
	return dctx.ctx.Value(key)
}
