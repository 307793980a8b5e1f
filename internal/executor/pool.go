// Package executor provides the two scheduling primitives of the
// runtime: an N-worker background pool for fulfillment work, and a
// single ordered post loop standing in for the UI-owning thread.
package executor

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/efroemling/ballistica-sub005/internal/logging"
)

// ErrPoolClosed is returned by Submit after Stop.
var ErrPoolClosed = errors.New("executor: pool is closed")

// Pool runs submitted functions on a fixed set of background workers.
// Submitted work is fire-and-forget: there is no result channel and no
// cancellation. Results travel back to the UI thread exclusively via
// the Loop.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool

	log *zap.Logger
}

// NewPool starts a pool with the given worker count and queue size.
func NewPool(workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 64
	}
	p := &Pool{
		tasks: make(chan func(), queueSize),
		log:   logging.Get(logging.CategoryExecutor),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(id, task)
	}
}

// run isolates a single task so one panicking task cannot take a
// worker down.
func (p *Pool) run(id int, task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("panic in background task",
				zap.Int("worker", id), zap.Any("panic", r))
		}
	}()
	task()
}

// Submit enqueues fn for background execution. Blocks when the queue is
// full; returns ErrPoolClosed after Stop. The lock is held across the
// send so Stop can never close the channel under a pending send.
func (p *Pool) Submit(fn func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	p.tasks <- fn
	return nil
}

// Stop drains queued tasks and waits for workers to exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()
	close(p.tasks)
	p.wg.Wait()
}
