package workpool

import (
	"container/list"
	"time"
)

type Worker struct {
	pool     *Pool
	taskChan chan func()
	elem     *list.Element // 在空闲列表中的位置, 受pool.lock保护
}

func newWorker(pool *Pool) *Worker {
	worker := &Worker{
		pool:     pool,
		taskChan: make(chan func(), 1),
	}
	return worker
}

func (w *Worker) loop(task func()) {
	defer w.pool.wg.Done()

	for {
		w.run(task)

		if !w.pool.recycle(w) {
			return
		}

		var ok bool
		task, ok = w.wait()
		if !ok {
			return
		}
	}
}

func (w *Worker) wait() (func(), bool) {
	timer := time.NewTimer(w.pool.options.idleTimeout)
	defer timer.Stop()

	select {
	case task, ok := <-w.taskChan:
		return task, ok
	case <-timer.C:
		if w.pool.expire(w) {
			return nil, false
		}
		// 超时的同时被Submit取走了
		task, ok := <-w.taskChan
		return task, ok
	}
}

func (w *Worker) run(task func()) {
	if task == nil {
		return
	}

	w.pool.running.Add(1)
	defer w.pool.running.Add(-1)

	defer func() {
		if r := recover(); r != nil {
			if w.pool.options.panicHandler != nil {
				w.pool.options.panicHandler(r)
			}
		}
	}()
	task()
}
