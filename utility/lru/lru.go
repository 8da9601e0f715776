package lru

import (
	"container/list"
	"sync"
)

type entry[K comparable, V any] struct {
	key   K
	value V
}

// LRU 并发安全的定长缓存, 超出容量时淘汰最久未访问的元素
type LRU[K comparable, V any] struct {
	lock     sync.Mutex
	capacity int
	elemMap  map[K]*list.Element
	elemList *list.List
}

func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRU[K, V]{
		capacity: capacity,
		elemMap:  make(map[K]*list.Element, capacity),
		elemList: list.New(),
	}
}

// Set 写入或更新, 返回是否为新元素
func (l *LRU[K, V]) Set(k K, v V) bool {
	l.lock.Lock()
	defer l.lock.Unlock()

	if elem, ok := l.elemMap[k]; ok {
		l.elemList.MoveToFront(elem)
		elem.Value.(*entry[K, V]).value = v
		return false
	}

	l.elemMap[k] = l.elemList.PushFront(&entry[K, V]{key: k, value: v})
	if l.elemList.Len() > l.capacity {
		oldest := l.elemList.Back()
		l.elemList.Remove(oldest)
		delete(l.elemMap, oldest.Value.(*entry[K, V]).key)
	}
	return true
}

func (l *LRU[K, V]) Get(k K) (V, bool) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if elem, ok := l.elemMap[k]; ok {
		l.elemList.MoveToFront(elem)
		return elem.Value.(*entry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Peek 读取但不改变访问顺序
func (l *LRU[K, V]) Peek(k K) (V, bool) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if elem, ok := l.elemMap[k]; ok {
		return elem.Value.(*entry[K, V]).value, true
	}
	var zero V
	return zero, false
}

func (l *LRU[K, V]) Del(k K) bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	if elem, ok := l.elemMap[k]; ok {
		l.elemList.Remove(elem)
		delete(l.elemMap, k)
		return true
	}
	return false
}

func (l *LRU[K, V]) Len() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.elemList.Len()
}

// Range 从新到旧遍历, f返回false时停止
func (l *LRU[K, V]) Range(f func(k K, v V) bool) {
	l.lock.Lock()
	defer l.lock.Unlock()
	for elem := l.elemList.Front(); elem != nil; elem = elem.Next() {
		e := elem.Value.(*entry[K, V])
		if !f(e.key, e.value) {
			break
		}
	}
}
