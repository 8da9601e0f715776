package workpool

import (
	"container/list"
	"errors"
	"sync"
	"sync/atomic"
)

var ErrPoolClosed = errors.New("work pool closed")

// Pool 弹性协程池: 有空闲worker时复用, 否则新建; 空闲超时的worker自动退出.
// 提交的task可以长时间阻塞, 不会影响其他task的调度.
type Pool struct {
	options *Options

	lock   sync.Mutex
	idle   *list.List
	closed bool

	running atomic.Int32
	wg      sync.WaitGroup
}

func NewPool(options ...Option) *Pool {
	pool := &Pool{
		options: LoadOptions(options...),
		idle:    list.New(),
	}
	return pool
}

func (pool *Pool) Submit(task func()) error {
	if task == nil {
		return nil
	}

	pool.lock.Lock()
	if pool.closed {
		pool.lock.Unlock()
		return ErrPoolClosed
	}

	if elem := pool.idle.Back(); elem != nil {
		pool.idle.Remove(elem)
		worker := elem.Value.(*Worker)
		worker.elem = nil
		pool.lock.Unlock()
		worker.taskChan <- task
		return nil
	}

	worker := newWorker(pool)
	pool.wg.Add(1)
	pool.lock.Unlock()

	go worker.loop(task)
	return nil
}

// Running 正在执行task的worker数量
func (pool *Pool) Running() int {
	return int(pool.running.Load())
}

func (pool *Pool) IdleCount() int {
	pool.lock.Lock()
	defer pool.lock.Unlock()
	return pool.idle.Len()
}

// Shutdown 拒绝新的task并释放空闲worker, 执行中的task不会被打断
func (pool *Pool) Shutdown() {
	pool.lock.Lock()
	defer pool.lock.Unlock()
	if pool.closed {
		return
	}
	pool.closed = true
	for elem := pool.idle.Front(); elem != nil; elem = elem.Next() {
		worker := elem.Value.(*Worker)
		worker.elem = nil
		close(worker.taskChan)
	}
	pool.idle.Init()
}

// Wait 等待所有worker退出, 需要先调用Shutdown
func (pool *Pool) Wait() {
	pool.wg.Wait()
}

func (pool *Pool) IsClosed() bool {
	pool.lock.Lock()
	defer pool.lock.Unlock()
	return pool.closed
}

// 归还空闲worker, 返回false表示worker需要退出
func (pool *Pool) recycle(worker *Worker) bool {
	pool.lock.Lock()
	defer pool.lock.Unlock()
	if pool.closed || pool.idle.Len() >= pool.options.maxIdle {
		return false
	}
	worker.elem = pool.idle.PushBack(worker)
	return true
}

// 空闲超时, 返回false表示worker已被Submit取走, 需要继续接收task
func (pool *Pool) expire(worker *Worker) bool {
	pool.lock.Lock()
	defer pool.lock.Unlock()
	if worker.elem == nil {
		return false
	}
	pool.idle.Remove(worker.elem)
	worker.elem = nil
	return true
}
