package regcache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	"github.com/puzpuzpuz/xsync"
)

// Task is a unit of asynchronous work.
type Task func(ctx context.Context)

// Pool supplies mutual exclusion and asynchronous task execution to a cache
// instance.
//
// The locker guards one cache instance's mutable state, Submit enqueues work
// to be executed exactly once on some worker goroutine.
type Pool interface {
	sync.Locker

	// Submit enqueues a task and returns without waiting for it to run.
	Submit(ctx context.Context, task Task) error
}

// WorkerPoolConfig controls WorkerPool instance.
type WorkerPoolConfig struct {
	// Logger is an instance of contextualized logger, can be nil.
	Logger ctxd.Logger

	// Stats is metrics collector, can be nil.
	Stats stats.Tracker

	// Name is pool instance name, used in stats and logging.
	Name string

	// Workers is the number of worker goroutines, default 2.
	Workers int

	// QueueSize is task queue capacity, default 64.
	QueueSize int
}

var _ Pool = &WorkerPool{}

// WorkerPool executes submitted tasks on a fixed set of goroutines in FIFO
// order and doubles as the exclusive-access primitive of a cache instance.
//
// Please use NewWorkerPool to create instance.
type WorkerPool struct {
	sync.Mutex

	queue  *xsync.MPMCQueue
	closed chan struct{}
	wg     sync.WaitGroup
	once   sync.Once

	submitted int64
	completed int64

	config WorkerPoolConfig
	log    ctxd.Logger
	stat   stats.Tracker
}

type poolTask struct {
	ctx context.Context
	run Task
}

// NewWorkerPool creates a started worker pool with optional configuration.
func NewWorkerPool(cfg ...WorkerPoolConfig) *WorkerPool {
	config := WorkerPoolConfig{}

	if len(cfg) >= 1 {
		config = cfg[0]
	}

	if config.Workers == 0 {
		config.Workers = 2
	}

	if config.QueueSize == 0 {
		config.QueueSize = 64
	}

	p := &WorkerPool{
		queue:  xsync.NewMPMCQueue(config.QueueSize),
		closed: make(chan struct{}),
		config: config,
		log:    config.Logger,
		stat:   config.Stats,
	}

	p.wg.Add(config.Workers)

	for i := 0; i < config.Workers; i++ {
		go p.worker()
	}

	return p
}

// Submit enqueues a task for asynchronous execution.
//
// Submit returns immediately while queue capacity remains and blocks
// otherwise. ErrPoolClosed is returned after Close.
func (p *WorkerPool) Submit(ctx context.Context, task Task) error {
	select {
	case <-p.closed:
		return ErrPoolClosed
	default:
	}

	p.queue.Enqueue(poolTask{ctx: ctx, run: task})
	atomic.AddInt64(&p.submitted, 1)

	if p.log != nil {
		p.log.Debug(ctx, "task submitted", "name", p.config.Name)
	}

	return nil
}

// Close stops task intake and waits for accepted tasks to finish.
//
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	p.once.Do(func() {
		close(p.closed)

		// One stop marker per worker, queued behind accepted tasks.
		for i := 0; i < p.config.Workers; i++ {
			p.queue.Enqueue(nil)
		}
	})

	p.wg.Wait()
}

// Submitted returns the number of accepted tasks.
func (p *WorkerPool) Submitted() int64 {
	return atomic.LoadInt64(&p.submitted)
}

// Completed returns the number of finished tasks.
func (p *WorkerPool) Completed() int64 {
	return atomic.LoadInt64(&p.completed)
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for {
		item := p.queue.Dequeue()
		if item == nil {
			return
		}

		t := item.(poolTask)

		t.run(t.ctx)
		atomic.AddInt64(&p.completed, 1)

		if p.stat != nil {
			p.stat.Add(t.ctx, MetricTask, 1, "name", p.config.Name)
		}
	}
}
