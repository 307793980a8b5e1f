package executor

import (
	"sync"

	"go.uber.org/zap"

	"github.com/efroemling/ballistica-sub005/internal/logging"
)

// Poster posts a function to the UI-owning thread. Background workers
// hand results back exclusively through this; posted functions execute
// strictly in arrival order.
type Poster interface {
	Post(fn func())
}

// Loop is a channel-backed Poster drained by a single goroutine. It is
// the UI thread of headless runs and tests; a real front end provides
// its own Poster wired to its event loop.
type Loop struct {
	posts chan func()
	done  chan struct{}

	mu     sync.Mutex
	closed bool

	log *zap.Logger
}

// NewLoop creates a loop and starts its drain goroutine.
func NewLoop() *Loop {
	l := &Loop{
		posts: make(chan func(), 128),
		done:  make(chan struct{}),
		log:   logging.Get(logging.CategoryExecutor),
	}
	go l.drain()
	return l
}

func (l *Loop) drain() {
	defer close(l.done)
	for fn := range l.posts {
		l.exec(fn)
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("panic in posted UI callback", zap.Any("panic", r))
		}
	}()
	fn()
}

// Post implements Poster. Posts after Stop are dropped; a result whose
// UI loop is gone has nowhere meaningful to go anyway.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		l.log.Debug("dropping post to stopped loop")
		return
	}
	l.posts <- fn
}

// Sync posts a barrier and waits until everything posted before it has
// executed.
func (l *Loop) Sync() {
	ch := make(chan struct{})
	l.Post(func() { close(ch) })
	select {
	case <-ch:
	case <-l.done:
	}
}

// Stop drains pending posts and stops the loop.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()
	close(l.posts)
	<-l.done
}
