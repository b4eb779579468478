package promise

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestLoop(t *testing.T) *Loop {
	t.Helper()
	l := NewLoop()
	t.Cleanup(func() {
		l.Close()
		l.Wait()
	})
	return l
}

func awaitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestPromise_ResolveAwait(t *testing.T) {
	loop := newTestLoop(t)
	p := New[string](loop)

	assert.True(t, p.Resolve("ok"))

	v, err := p.Await(awaitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestPromise_RejectAwait(t *testing.T) {
	loop := newTestLoop(t)
	boom := errors.New("boom")

	v, err := Rejected[int](loop, boom).Await(awaitCtx(t))
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, v)
}

func TestPromise_FirstSettlementWins(t *testing.T) {
	loop := newTestLoop(t)
	p := New[int](loop)

	assert.True(t, p.Reject(errors.New("first")))
	assert.False(t, p.Resolve(2))
	assert.False(t, p.Reject(errors.New("third")))

	_, err := p.Await(awaitCtx(t))
	require.Error(t, err)
	assert.Equal(t, "first", err.Error())
}

func TestPromise_DeliveryIsDeferred(t *testing.T) {
	loop := newTestLoop(t)

	// Hold the loop so the delivery task cannot run yet.
	release := make(chan struct{})
	loop.Post(func() { <-release })

	p := Resolved(loop, 42)
	select {
	case <-p.Done():
		t.Fatal("settlement delivered while the loop was busy")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	v, err := p.Await(awaitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestPromise_AwaitHonorsContext(t *testing.T) {
	loop := newTestLoop(t)
	p := New[int](loop)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Await(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPromise_ThenRunsOnLoopInOrder(t *testing.T) {
	loop := newTestLoop(t)

	var mu sync.Mutex
	var got []int
	var wg sync.WaitGroup

	promises := make([]*Promise[int], 5)
	for i := range promises {
		promises[i] = New[int](loop)
		wg.Add(1)
		promises[i].Then(func(v int, err error) {
			defer wg.Done()
			mu.Lock()
			got = append(got, v)
			mu.Unlock()
		})
	}
	for i, p := range promises {
		p.Resolve(i)
	}
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestPromise_ThenAfterDelivery(t *testing.T) {
	loop := newTestLoop(t)
	p := Resolved(loop, "late")
	_, _ = p.Await(awaitCtx(t))

	ch := make(chan string, 1)
	p.Then(func(v string, _ error) { ch <- v })

	select {
	case v := <-ch:
		assert.Equal(t, "late", v)
	case <-time.After(2 * time.Second):
		t.Fatal("callback registered after delivery never ran")
	}
}

func TestLoop_PostAfterCloseRunsInline(t *testing.T) {
	loop := NewLoop()
	loop.Close()

	ran := false
	loop.Post(func() { ran = true })
	assert.True(t, ran)

	// A promise settled after Close still releases its awaiter.
	v, err := Resolved(loop, 7).Await(awaitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestLoop_CloseDrainsQueue(t *testing.T) {
	loop := NewLoop()

	var mu sync.Mutex
	count := 0
	for i := 0; i < 100; i++ {
		loop.Post(func() {
			mu.Lock()
			count++
			mu.Unlock()
		})
	}
	loop.Close()
	loop.Wait()

	assert.Equal(t, 100, count)
}

func TestLoop_NoGoroutineLeak(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	loop := NewLoop()
	p := Resolved(loop, struct{}{})
	_, _ = p.Await(context.Background())
	loop.Close()
	loop.Close()
	loop.Wait()
}

func TestLoop_CloseFromTask(t *testing.T) {
	loop := NewLoop()
	first := New[int](loop)
	second := New[int](loop)

	closed := make(chan struct{})
	first.Then(func(int, error) {
		loop.Close()
		close(closed)
	})
	first.Resolve(1)

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close called from a task never returned")
	}

	second.Resolve(2)
	v, err := second.Await(awaitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	waited := make(chan struct{})
	go func() {
		loop.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after Close")
	}
}
