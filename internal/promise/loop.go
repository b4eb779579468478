// Package promise provides deferred results delivered on a single-threaded
// notification loop.
//
// A Promise is claimed synchronously by the first Resolve or Reject call, but
// its settlement becomes observable only when the loop runs the delivery task
// on a later turn. Work done before settling is therefore complete and
// ordered by issue, while notification order across promises is up to the
// loop.
package promise

import (
	"sync"
)

// Loop runs posted tasks one at a time, in FIFO order, on its own goroutine.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool
	done   chan struct{}
}

// NewLoop starts a loop.
func NewLoop() *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

// Post schedules fn on a later turn of the loop. Once the loop is closed, fn
// runs inline so that pending awaiters are still released.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		fn()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Close stops the loop once the tasks already queued have run. It does not
// wait, so a task may close its own loop. Use Wait to block until the loop
// has exited.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Wait blocks until the loop has been closed and drained. Calling Wait from a
// task on l never returns.
func (l *Loop) Wait() {
	<-l.done
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		tasks := l.queue
		l.queue = nil
		closed := l.closed
		l.mu.Unlock()

		for _, task := range tasks {
			task()
		}
		if len(tasks) > 0 {
			continue
		}
		if closed {
			return
		}
		<-l.wake
	}
}
