package regcache_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/regcache"
)

func TestNew_invalidName(t *testing.T) {
	_, err := regcache.New()
	assert.EqualError(t, err, regcache.ErrInvalidName.Error())

	_, err = regcache.New(regcache.Config{Name: strings.Repeat("n", 33)})
	assert.EqualError(t, err, regcache.ErrInvalidName.Error())

	c, err := regcache.New(regcache.Config{Name: strings.Repeat("n", 33), MaxNameLen: 64})
	require.NoError(t, err)
	c.Close()
}

func TestCache_endToEnd(t *testing.T) {
	ctx := context.Background()
	c, err := regcache.New(regcache.Config{
		Name:      "sensors",
		Logger:    ctxd.NoOpLogger{},
		Stats:     &stats.TrackerMock{},
		Workers:   2,
		QueueSize: 8,
	})
	require.NoError(t, err)

	assert.False(t, c.Contains(ctx, "temp"))

	changed := make(chan []uint16, 4)
	listener := regcache.ListenerFunc(func(_ context.Context, key string, values []uint16) {
		assert.Equal(t, "temp", key)
		changed <- values
	})

	require.NoError(t, c.Add(ctx, "temp", []uint16{250}, listener))
	assert.True(t, c.Contains(ctx, "temp"))

	buf := make([]uint16, 1)
	n, err := c.Get(ctx, "temp", buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []uint16{250}, buf)

	// Same key again must not touch the existing entry.
	err = c.Add(ctx, "temp", []uint16{1}, nil)
	assert.EqualError(t, err, regcache.ErrDuplicateKey.Error())

	v, err := c.Values(ctx, "temp")
	require.NoError(t, err)
	assert.Equal(t, []uint16{250}, v)

	// A changing write notifies exactly once.
	require.NoError(t, c.Set(ctx, "temp", []uint16{300}))

	select {
	case v := <-changed:
		assert.Equal(t, []uint16{300}, v)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change notification")
	}

	// Identical write does not notify.
	require.NoError(t, c.Set(ctx, "temp", []uint16{300}))

	v, err = c.Values(ctx, "temp")
	require.NoError(t, err)
	assert.Equal(t, []uint16{300}, v)

	require.NoError(t, c.Remove(ctx, "temp"))
	assert.False(t, c.Contains(ctx, "temp"))

	_, err = c.Values(ctx, "temp")
	assert.EqualError(t, err, regcache.ErrNotFound.Error())

	_, _, err = c.Size(ctx)
	assert.EqualError(t, err, regcache.ErrEmptyCache.Error())

	require.NoError(t, c.Add(ctx, "a", []uint16{1}, nil))
	require.NoError(t, c.Add(ctx, "b", []uint16{2, 3}, nil))

	entries, bytes, err := c.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, entries)
	assert.Equal(t, 6, bytes)

	// Closing drains the pool, no late notifications may show up.
	c.Close()
	assert.Len(t, changed, 0)
}

func TestCache_Add_validation(t *testing.T) {
	ctx := context.Background()
	c, err := regcache.New(regcache.Config{Name: "validation", MaxKeyLen: 8, MaxValues: 2})
	require.NoError(t, err)

	defer c.Close()

	err = c.Add(ctx, "", []uint16{1}, nil)
	assert.EqualError(t, err, regcache.ErrInvalidName.Error())

	err = c.Add(ctx, "oversizedkey", []uint16{1}, nil)
	assert.EqualError(t, err, regcache.ErrInvalidName.Error())

	err = c.Add(ctx, "novals", nil, nil)
	assert.EqualError(t, err, regcache.ErrEmptyValues.Error())

	err = c.Add(ctx, "toolong", []uint16{1, 2, 3}, nil)
	assert.EqualError(t, err, regcache.ErrValueTooLong.Error())

	assert.Equal(t, 0, c.Len())
}

func TestCache_Remove_missing(t *testing.T) {
	ctx := context.Background()
	c, err := regcache.New(regcache.Config{Name: "removal"})
	require.NoError(t, err)

	defer c.Close()

	err = c.Remove(ctx, "ghost")
	assert.EqualError(t, err, regcache.ErrNotFound.Error())

	require.NoError(t, c.Add(ctx, "a", []uint16{1}, nil))
	require.NoError(t, c.Add(ctx, "b", []uint16{2}, nil))
	require.NoError(t, c.Add(ctx, "c", []uint16{3}, nil))

	// Head, middle and tail removals keep the rest in order.
	require.NoError(t, c.Remove(ctx, "a"))
	require.NoError(t, c.Add(ctx, "d", []uint16{4}, nil))
	require.NoError(t, c.Remove(ctx, "c"))

	keys := []string(nil)
	_, err = c.Walk(func(key string, values []uint16) error {
		keys = append(keys, key)

		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "d"}, keys)
}

func TestCache_Set_validation(t *testing.T) {
	ctx := context.Background()
	c, err := regcache.New(regcache.Config{Name: "setval"})
	require.NoError(t, err)

	defer c.Close()

	err = c.Set(ctx, "ghost", []uint16{1})
	assert.EqualError(t, err, regcache.ErrNotFound.Error())

	require.NoError(t, c.Add(ctx, "pair", []uint16{1, 2}, nil))

	err = c.Set(ctx, "pair", []uint16{1})
	assert.EqualError(t, err, regcache.ErrCountMismatch.Error())

	v, err := c.Values(ctx, "pair")
	require.NoError(t, err)
	assert.Equal(t, []uint16{1, 2}, v)
}

func TestCache_Get_shortBuffer(t *testing.T) {
	ctx := context.Background()
	c, err := regcache.New(regcache.Config{Name: "buffers"})
	require.NoError(t, err)

	defer c.Close()

	require.NoError(t, c.Add(ctx, "pair", []uint16{7, 8}, nil))

	_, err = c.Get(ctx, "pair", make([]uint16, 1))
	assert.EqualError(t, err, regcache.ErrShortBuffer.Error())

	// Oversized buffer is fine, copied count is reported.
	buf := make([]uint16, 4)
	n, err := c.Get(ctx, "pair", buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []uint16{7, 8}, buf[:n])
}

func TestCache_buffersNotAliased(t *testing.T) {
	ctx := context.Background()
	c, err := regcache.New(regcache.Config{Name: "aliasing"})
	require.NoError(t, err)

	defer c.Close()

	in := []uint16{10}
	require.NoError(t, c.Add(ctx, "reg", in, nil))

	// Mutating the caller's buffer must not reach the stored value.
	in[0] = 99

	v, err := c.Values(ctx, "reg")
	require.NoError(t, err)
	assert.Equal(t, []uint16{10}, v)

	// Mutating the returned copy must not either.
	v[0] = 77

	v, err = c.Values(ctx, "reg")
	require.NoError(t, err)
	assert.Equal(t, []uint16{10}, v)
}

func TestCache_Set_skipNotify(t *testing.T) {
	ctx := context.Background()
	notified := make(chan string, 4)
	c, err := regcache.New(regcache.Config{Name: "seeding"})
	require.NoError(t, err)

	listener := regcache.ListenerFunc(func(_ context.Context, key string, _ []uint16) {
		notified <- key
	})

	require.NoError(t, c.Add(ctx, "reg", []uint16{1}, listener))
	require.NoError(t, c.Set(regcache.WithSkipNotify(ctx), "reg", []uint16{2}))

	v, err := c.Values(ctx, "reg")
	require.NoError(t, err)
	assert.Equal(t, []uint16{2}, v)

	c.Close()
	assert.Len(t, notified, 0)
}

func TestCache_Walk_stopsOnError(t *testing.T) {
	ctx := context.Background()
	c, err := regcache.New(regcache.Config{Name: "walker"})
	require.NoError(t, err)

	defer c.Close()

	require.NoError(t, c.Add(ctx, "a", []uint16{1}, nil))
	require.NoError(t, c.Add(ctx, "b", []uint16{2}, nil))
	require.NoError(t, c.Add(ctx, "c", []uint16{3}, nil))

	errStop := errors.New("stop")
	n, err := c.Walk(func(key string, values []uint16) error {
		if key == "b" {
			return errStop
		}

		return nil
	})
	assert.Equal(t, errStop, err)
	assert.Equal(t, 1, n)

	n, err = c.Walk(func(key string, values []uint16) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestCache_externalPool(t *testing.T) {
	ctx := context.Background()
	pool := regcache.NewWorkerPool(regcache.WorkerPoolConfig{Name: "shared"})

	c, err := regcache.New(regcache.Config{Name: "attached", Pool: pool})
	require.NoError(t, err)

	changed := make(chan struct{}, 1)
	require.NoError(t, c.Add(ctx, "reg", []uint16{1}, regcache.ListenerFunc(
		func(_ context.Context, _ string, _ []uint16) {
			changed <- struct{}{}
		})))
	require.NoError(t, c.Set(ctx, "reg", []uint16{2}))

	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change notification")
	}

	// External pool survives cache closure.
	c.Close()
	assert.NoError(t, pool.Submit(ctx, func(ctx context.Context) {}))

	pool.Close()
	assert.EqualValues(t, 2, pool.Submitted())
	assert.EqualValues(t, 2, pool.Completed())

	// Set still updates values when the pool can not take the notification.
	require.NoError(t, c.Set(ctx, "reg", []uint16{3}))

	v, err := c.Values(ctx, "reg")
	require.NoError(t, err)
	assert.Equal(t, []uint16{3}, v)
}
