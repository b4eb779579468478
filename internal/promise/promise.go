package promise

import (
	"context"
	"sync"
)

// Promise is a deferred result of type T.
type Promise[T any] struct {
	loop *Loop

	mu        sync.Mutex
	claimed   bool
	delivered bool
	value     T
	err       error
	callbacks []func(T, error)
	done      chan struct{}
}

// New creates a pending promise that delivers on loop.
func New[T any](loop *Loop) *Promise[T] {
	return &Promise[T]{
		loop: loop,
		done: make(chan struct{}),
	}
}

// Resolved returns a promise already claimed with value.
func Resolved[T any](loop *Loop, value T) *Promise[T] {
	p := New[T](loop)
	p.Resolve(value)
	return p
}

// Rejected returns a promise already claimed with err.
func Rejected[T any](loop *Loop, err error) *Promise[T] {
	p := New[T](loop)
	p.Reject(err)
	return p
}

// Resolve settles p with value. It reports false if p was already settled.
func (p *Promise[T]) Resolve(value T) bool {
	return p.settle(value, nil)
}

// Reject settles p with err. It reports false if p was already settled.
func (p *Promise[T]) Reject(err error) bool {
	var zero T
	return p.settle(zero, err)
}

func (p *Promise[T]) settle(value T, err error) bool {
	p.mu.Lock()
	if p.claimed {
		p.mu.Unlock()
		return false
	}
	p.claimed = true
	p.value = value
	p.err = err
	p.mu.Unlock()

	p.loop.Post(p.deliver)
	return true
}

// deliver runs on the loop.
func (p *Promise[T]) deliver() {
	p.mu.Lock()
	p.delivered = true
	callbacks := p.callbacks
	p.callbacks = nil
	value, err := p.value, p.err
	p.mu.Unlock()

	close(p.done)
	for _, cb := range callbacks {
		cb(value, err)
	}
}

// Done is closed once the settlement has been delivered.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

// Await blocks until the settlement is delivered or ctx ends.
func (p *Promise[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.value, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then registers fn to run on the loop with the settlement. Callbacks
// registered after delivery are posted to the next turn.
func (p *Promise[T]) Then(fn func(T, error)) {
	p.mu.Lock()
	if !p.delivered {
		p.callbacks = append(p.callbacks, fn)
		p.mu.Unlock()
		return
	}
	value, err := p.value, p.err
	p.mu.Unlock()

	p.loop.Post(func() { fn(value, err) })
}
