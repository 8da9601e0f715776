package actor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailBoxFIFO(t *testing.T) {
	mb := NewMailBox[int]()
	assert.True(t, mb.IsEmpty())

	for i := 0; i < 100; i++ {
		mb.Enqueue(i)
	}
	assert.Equal(t, 100, mb.Len())

	ctx := context.Background()
	for i := 0; i < 100; i++ {
		v, err := mb.Dequeue(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	assert.True(t, mb.IsEmpty())

	_, ok := mb.TryDequeue()
	assert.False(t, ok)
}

func TestMailBoxBlockingDequeue(t *testing.T) {
	mb := NewMailBox[string]()

	got := make(chan string, 1)
	go func() {
		v, err := mb.Dequeue(context.Background())
		if err == nil {
			got <- v
		}
	}()

	select {
	case <-got:
		t.Fatal("dequeue returned on empty mailbox")
	case <-time.After(50 * time.Millisecond):
	}

	mb.Enqueue("hello")
	select {
	case v := <-got:
		assert.Equal(t, "hello", v)
	case <-time.After(time.Second):
		t.Fatal("dequeue not woken by enqueue")
	}
}

func TestMailBoxDequeueCancel(t *testing.T) {
	mb := NewMailBox[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := mb.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMailBoxConcurrentProducers(t *testing.T) {
	mb := NewMailBox[int]()
	wg := sync.WaitGroup{}
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				mb.Enqueue(i)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 8000, mb.Len())
}
