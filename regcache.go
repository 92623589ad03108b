package regcache

import (
	"context"
	"sync"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
)

// entry is a named register record, owned exclusively by its cache.
type entry struct {
	key      string
	values   []uint16
	listener Listener
}

// Config controls cache instance.
type Config struct {
	// Logger is an instance of contextualized logger, can be nil.
	Logger ctxd.Logger

	// Stats is metrics collector, can be nil.
	Stats stats.Tracker

	// Name is cache instance name, used in stats and logging.
	Name string

	// Pool supplies mutual exclusion and notification dispatch.
	//
	// An owned WorkerPool is created by default. An external pool must
	// outlive the cache and is not closed by it.
	Pool Pool

	// Workers and QueueSize configure the owned WorkerPool,
	// only used with nil Pool.
	Workers   int
	QueueSize int

	// MaxNameLen bounds cache name length, default 32.
	MaxNameLen int

	// MaxKeyLen bounds entry key length, default 32.
	MaxKeyLen int

	// MaxValues bounds the number of values per entry, default 255.
	MaxValues int

	// ItemsCountReportInterval is items count metric report interval, default 1m.
	ItemsCountReportInterval time.Duration
}

var (
	_ Store  = &Cache{}
	_ Walker = &Cache{}
)

// Cache is an ordered collection of named uint16 registers.
//
// Entries preserve insertion order and are located by linear scan, the
// intended use case is a handful to a few dozen named values.
//
// Please use New to create instance.
type Cache struct {
	pool     Pool
	ownsPool bool
	entries  []*entry
	closed   chan struct{}
	once     sync.Once

	config Config
	log    ctxd.Logger
	stat   stats.Tracker
}

// New creates a cache instance.
//
// ErrInvalidName is returned for an empty name or a name longer than
// Config.MaxNameLen.
func New(cfg ...Config) (*Cache, error) {
	config := Config{}

	if len(cfg) >= 1 {
		config = cfg[0]
	}

	if config.MaxNameLen == 0 {
		config.MaxNameLen = 32
	}

	if config.MaxKeyLen == 0 {
		config.MaxKeyLen = 32
	}

	if config.MaxValues == 0 {
		config.MaxValues = 255
	}

	if config.ItemsCountReportInterval == 0 {
		config.ItemsCountReportInterval = time.Minute
	}

	if config.Name == "" || len(config.Name) > config.MaxNameLen {
		return nil, ErrInvalidName
	}

	c := &Cache{
		pool:   config.Pool,
		config: config,
		log:    config.Logger,
		stat:   config.Stats,
		closed: make(chan struct{}),
	}

	if c.pool == nil {
		c.pool = NewWorkerPool(WorkerPoolConfig{
			Logger:    config.Logger,
			Stats:     config.Stats,
			Name:      config.Name,
			Workers:   config.Workers,
			QueueSize: config.QueueSize,
		})
		c.ownsPool = true
	}

	if c.stat != nil {
		go c.reportItemsCount()
	}

	return c, nil
}

// Contains reports whether an entry exists for the key.
func (c *Cache) Contains(ctx context.Context, key string) bool {
	c.pool.Lock()
	_, found := c.find(key)
	c.pool.Unlock()

	if c.log != nil {
		c.log.Debug(ctx, "cache lookup",
			"name", c.config.Name,
			"key", key,
			"found", found)
	}

	return found
}

// Add creates an entry holding a copy of values at the ordered tail.
//
// The entry value count is fixed to len(values) for its lifetime.
// An optional listener is notified asynchronously when Set changes the
// stored values.
func (c *Cache) Add(ctx context.Context, key string, values []uint16, listener Listener) error {
	if key == "" || len(key) > c.config.MaxKeyLen {
		return ErrInvalidName
	}

	c.pool.Lock()
	defer c.pool.Unlock()

	if _, found := c.find(key); found {
		if c.log != nil {
			c.log.Debug(ctx, "key already present", "name", c.config.Name, "key", key)
		}

		return ErrDuplicateKey
	}

	if len(values) == 0 {
		return ErrEmptyValues
	}

	if len(values) > c.config.MaxValues {
		if c.log != nil {
			c.log.Debug(ctx, "too many values",
				"name", c.config.Name,
				"key", key,
				"count", len(values))
		}

		return ErrValueTooLong
	}

	v := make([]uint16, len(values))
	copy(v, values)

	c.entries = append(c.entries, &entry{key: key, values: v, listener: listener})

	if c.log != nil {
		c.log.Debug(ctx, "added cache entry",
			"name", c.config.Name,
			"key", key,
			"count", len(v))
	}

	if c.stat != nil {
		c.stat.Add(ctx, MetricAdd, 1, "name", c.config.Name)
	}

	return nil
}

// Remove deletes an entry, preserving the order of the remaining ones.
func (c *Cache) Remove(ctx context.Context, key string) error {
	c.pool.Lock()
	defer c.pool.Unlock()

	i, found := c.find(key)
	if !found {
		c.miss(ctx, key)

		return ErrNotFound
	}

	c.entries = append(c.entries[:i], c.entries[i+1:]...)

	if c.log != nil {
		c.log.Debug(ctx, "removed cache entry", "name", c.config.Name, "key", key)
	}

	if c.stat != nil {
		c.stat.Add(ctx, MetricRemove, 1, "name", c.config.Name)
	}

	return nil
}

// Get copies entry values into out and returns the number of values copied.
//
// ErrShortBuffer is returned without a partial write when out can not hold
// the entry value count.
func (c *Cache) Get(ctx context.Context, key string, out []uint16) (int, error) {
	c.pool.Lock()
	defer c.pool.Unlock()

	i, found := c.find(key)
	if !found {
		c.miss(ctx, key)

		return 0, ErrNotFound
	}

	e := c.entries[i]

	if len(out) < len(e.values) {
		return 0, ErrShortBuffer
	}

	n := copy(out, e.values)

	c.hit(ctx, key)

	return n, nil
}

// Values returns a copy of entry values.
func (c *Cache) Values(ctx context.Context, key string) ([]uint16, error) {
	c.pool.Lock()
	defer c.pool.Unlock()

	i, found := c.find(key)
	if !found {
		c.miss(ctx, key)

		return nil, ErrNotFound
	}

	e := c.entries[i]
	v := make([]uint16, len(e.values))
	copy(v, e.values)

	c.hit(ctx, key)

	return v, nil
}

// Set overwrites entry values.
//
// The value count must match the entry's fixed count. If any position
// differs from the stored values, all positions are overwritten and one
// notification is submitted to the pool for the entry listener, after the
// lock is released. Set does not wait for the notification to run.
//
// Notifications are suppressed by WithSkipNotify context.
func (c *Cache) Set(ctx context.Context, key string, values []uint16) error {
	c.pool.Lock()

	i, found := c.find(key)
	if !found {
		c.miss(ctx, key)
		c.pool.Unlock()

		return ErrNotFound
	}

	e := c.entries[i]

	if len(values) != len(e.values) {
		c.pool.Unlock()

		return ErrCountMismatch
	}

	changed := false

	for j, v := range values {
		if e.values[j] != v {
			changed = true

			break
		}
	}

	copy(e.values, values)

	var (
		listener Listener
		snapshot []uint16
	)

	if changed && e.listener != nil && !SkipNotify(ctx) {
		listener = e.listener
		snapshot = make([]uint16, len(e.values))
		copy(snapshot, e.values)
	}

	c.pool.Unlock()

	if c.log != nil {
		c.log.Debug(ctx, "wrote to cache",
			"name", c.config.Name,
			"key", key,
			"values", values,
			"changed", changed)
	}

	if c.stat != nil {
		c.stat.Add(ctx, MetricWrite, 1, "name", c.config.Name)

		if changed {
			c.stat.Add(ctx, MetricChanged, 1, "name", c.config.Name)
		}
	}

	if listener == nil {
		return nil
	}

	c.notify(ctx, key, listener, snapshot)

	return nil
}

// Size returns entries count and total stored bytes (two bytes per value).
//
// ErrEmptyCache is returned when the cache has no entries.
func (c *Cache) Size(ctx context.Context) (int, int, error) {
	c.pool.Lock()

	entries := len(c.entries)
	bytes := 0

	for _, e := range c.entries {
		bytes += 2 * len(e.values)
	}

	c.pool.Unlock()

	if entries == 0 {
		return 0, 0, ErrEmptyCache
	}

	if c.log != nil {
		c.log.Debug(ctx, "cache size",
			"name", c.config.Name,
			"entries", entries,
			"bytes", bytes)
	}

	return entries, bytes, nil
}

// Walk walks cache entries in insertion order with copies of their values.
func (c *Cache) Walk(walkFn func(key string, values []uint16) error) (int, error) {
	c.pool.Lock()
	defer c.pool.Unlock()

	n := 0

	for _, e := range c.entries {
		v := make([]uint16, len(e.values))
		copy(v, e.values)

		if err := walkFn(e.key, v); err != nil {
			return n, err
		}

		n++
	}

	return n, nil
}

// Len returns number of entries in cache.
func (c *Cache) Len() int {
	c.pool.Lock()
	cnt := len(c.entries)
	c.pool.Unlock()

	return cnt
}

// Close stops background reporting and shuts down the owned worker pool,
// waiting for pending notifications to finish. An externally supplied pool
// is left running.
//
// Close is safe to call multiple times.
func (c *Cache) Close() {
	c.once.Do(func() {
		close(c.closed)
	})

	if !c.ownsPool {
		return
	}

	if p, ok := c.pool.(*WorkerPool); ok {
		p.Close()
	}
}

// find returns the entry index for a key, the lock must be held.
func (c *Cache) find(key string) (int, bool) {
	for i, e := range c.entries {
		if e.key == key {
			return i, true
		}
	}

	return 0, false
}

func (c *Cache) notify(ctx context.Context, key string, listener Listener, values []uint16) {
	if c.stat != nil {
		c.stat.Add(ctx, MetricNotification, 1, "name", c.config.Name)
	}

	// Caller cancellation must not reach the listener, values must.
	err := c.pool.Submit(detachedContext{ctx}, func(ctx context.Context) {
		listener.Changed(ctx, key, values)
	})
	if err != nil && c.log != nil {
		c.log.Warn(ctx, "failed to submit change notification",
			"error", err,
			"name", c.config.Name,
			"key", key)
	}
}

func (c *Cache) hit(ctx context.Context, key string) {
	if c.log != nil {
		c.log.Debug(ctx, "cache hit", "name", c.config.Name, "key", key)
	}

	if c.stat != nil {
		c.stat.Add(ctx, MetricHit, 1, "name", c.config.Name)
	}
}

func (c *Cache) miss(ctx context.Context, key string) {
	if c.log != nil {
		c.log.Debug(ctx, "cache miss", "name", c.config.Name, "key", key)
	}

	if c.stat != nil {
		c.stat.Add(ctx, MetricMiss, 1, "name", c.config.Name)
	}
}

func (c *Cache) reportItemsCount() {
	for {
		select {
		case <-time.After(c.config.ItemsCountReportInterval):
			count := c.Len()

			if c.log != nil {
				c.log.Debug(context.Background(), "cache items count",
					"name", c.config.Name,
					"count", count,
				)
			}

			c.stat.Set(context.Background(), MetricItems, float64(count), "name", c.config.Name)
		case <-c.closed:
			return
		}
	}
}
