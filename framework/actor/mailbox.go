package actor

import (
	"container/list"
	"context"
	"sync"
)

// MailBox 无界FIFO队列, 多生产者, Dequeue阻塞直到有消息
type MailBox[T any] struct {
	lock   sync.Mutex
	queue  *list.List
	notify chan struct{}
}

func NewMailBox[T any]() *MailBox[T] {
	return &MailBox[T]{
		queue:  list.New(),
		notify: make(chan struct{}, 1),
	}
}

func (mb *MailBox[T]) Enqueue(item T) {
	mb.lock.Lock()
	mb.queue.PushBack(item)
	mb.lock.Unlock()
	mb.signal()
}

// Dequeue 阻塞直到取到消息或ctx结束
func (mb *MailBox[T]) Dequeue(ctx context.Context) (T, error) {
	var zero T
	for {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if item, ok := mb.TryDequeue(); ok {
			return item, nil
		}
		select {
		case <-mb.notify:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

func (mb *MailBox[T]) TryDequeue() (T, bool) {
	mb.lock.Lock()
	elem := mb.queue.Front()
	if elem == nil {
		mb.lock.Unlock()
		var zero T
		return zero, false
	}
	mb.queue.Remove(elem)
	remain := mb.queue.Len()
	mb.lock.Unlock()

	// 还有剩余消息时唤醒其他等待者
	if remain > 0 {
		mb.signal()
	}
	return elem.Value.(T), true
}

func (mb *MailBox[T]) IsEmpty() bool {
	return mb.Len() == 0
}

func (mb *MailBox[T]) Len() int {
	mb.lock.Lock()
	defer mb.lock.Unlock()
	return mb.queue.Len()
}

func (mb *MailBox[T]) signal() {
	select {
	case mb.notify <- struct{}{}:
	default:
	}
}
