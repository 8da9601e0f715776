package workpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolBlockingTasks(t *testing.T) {
	pool := NewPool()
	defer pool.Shutdown()

	// 长时间阻塞的task不能阻止后续task执行
	release := make(chan struct{})
	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(func() { <-release }))
	}

	done := make(chan struct{})
	require.NoError(t, pool.Submit(func() { close(done) }))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task starved by blocking tasks")
	}

	assert.Eventually(t, func() bool { return pool.Running() == 10 }, time.Second, 5*time.Millisecond)
	close(release)
	assert.Eventually(t, func() bool { return pool.Running() == 0 }, time.Second, 5*time.Millisecond)
}

func TestPoolReuseIdleWorker(t *testing.T) {
	pool := NewPool(WithIdleTimeout(time.Minute))
	defer pool.Shutdown()

	wg := sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, pool.Submit(wg.Done))
	wg.Wait()

	assert.Eventually(t, func() bool { return pool.IdleCount() == 1 }, time.Second, 5*time.Millisecond)

	wg.Add(1)
	require.NoError(t, pool.Submit(wg.Done))
	wg.Wait()
	assert.Eventually(t, func() bool { return pool.IdleCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestPoolIdleExpire(t *testing.T) {
	pool := NewPool(WithIdleTimeout(20 * time.Millisecond))
	defer pool.Shutdown()

	require.NoError(t, pool.Submit(func() {}))
	assert.Eventually(t, func() bool { return pool.IdleCount() == 0 && pool.Running() == 0 }, time.Second, 5*time.Millisecond)
}

func TestPoolShutdown(t *testing.T) {
	var panics atomic.Int32
	pool := NewPool(WithPanicHandler(func(r any) { panics.Add(1) }))

	require.NoError(t, pool.Submit(func() { panic("boom") }))
	assert.Eventually(t, func() bool { return panics.Load() == 1 }, time.Second, 5*time.Millisecond)

	pool.Shutdown()
	pool.Wait()
	assert.True(t, pool.IsClosed())
	assert.ErrorIs(t, pool.Submit(func() {}), ErrPoolClosed)
}
