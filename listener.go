package regcache

import (
	"context"
	"sync"
	"time"
)

var (
	_ Listener = NoOpListener{}
	_ Listener = Broadcast(nil)
	_ Listener = &Throttled{}
)

// NoOpListener is a Listener stub.
type NoOpListener struct{}

// Changed discards the notification.
func (NoOpListener) Changed(ctx context.Context, key string, values []uint16) {}

// Broadcast fans a change notification out to a list of listeners in order.
type Broadcast []Listener

// Changed implements Listener.
func (b Broadcast) Changed(ctx context.Context, key string, values []uint16) {
	for _, l := range b {
		l.Changed(ctx, key, values)
	}
}

// Throttled drops notifications arriving too soon after the last delivered
// one.
type Throttled struct {
	sync.Mutex

	// SkipInterval defines minimal duration between two delivered
	// notifications (flood protection), default 15s.
	SkipInterval time.Duration

	// Next receives the notifications that pass.
	Next Listener

	lastRun time.Time
}

// Changed implements Listener.
func (t *Throttled) Changed(ctx context.Context, key string, values []uint16) {
	t.Lock()

	if t.SkipInterval == 0 {
		t.SkipInterval = 15 * time.Second
	}

	if time.Since(t.lastRun) < t.SkipInterval {
		t.Unlock()

		return
	}

	t.lastRun = time.Now()
	t.Unlock()

	t.Next.Changed(ctx, key, values)
}
