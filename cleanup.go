package meshauth

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// cleanupTask is a best-effort revocation of a credential artifact. Tasks run
// detached from the request that scheduled them: they receive a fresh
// background context so request cancellation cannot strand half-revoked state.
type cleanupTask struct {
	name string
	run  func(ctx context.Context) error
}

type cleanupDispatcher struct {
	cfg       CleanupConfig
	metrics   *Metrics
	ch        chan cleanupTask
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func newCleanupDispatcher(cfg CleanupConfig, metrics *Metrics) *cleanupDispatcher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 5 * time.Second
	}

	d := &cleanupDispatcher{
		cfg:     cfg,
		metrics: metrics,
		ch:      make(chan cleanupTask, cfg.BufferSize),
		done:    make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *cleanupDispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case task := <-d.ch:
			d.execute(task)
		case <-d.done:
			for {
				select {
				case task := <-d.ch:
					d.execute(task)
				default:
					return
				}
			}
		}
	}
}

func (d *cleanupDispatcher) execute(task cleanupTask) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.TaskTimeout)
	defer cancel()

	if err := task.run(ctx); err != nil {
		log.Print("meshauth: cleanup ", task.name, " failed: ", err)
	}
}

// Schedule queues a revocation task without blocking the caller. When the
// buffer is full the task is dropped and counted; revocation here is
// best-effort and keys in the stores carry TTLs as the backstop.
func (d *cleanupDispatcher) Schedule(name string, run func(ctx context.Context) error) {
	if d == nil || d.closed.Load() || run == nil {
		return
	}

	select {
	case d.ch <- cleanupTask{name: name, run: run}:
	case <-d.done:
	default:
		d.dropped.Add(1)
		d.metrics.inc(MetricCleanupDropped)
	}
}

// Close drains queued tasks and stops the dispatcher goroutine. Close is
// idempotent.
func (d *cleanupDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped reports how many tasks were discarded because the buffer was full.
func (d *cleanupDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
