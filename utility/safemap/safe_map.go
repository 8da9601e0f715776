package safemap

import "sync"

type SafeMap[K comparable, V any] struct {
	l sync.RWMutex
	m map[K]V
}

func NewSafeMap[K comparable, V any]() *SafeMap[K, V] {
	sm := &SafeMap[K, V]{
		m: map[K]V{},
	}
	return sm
}

func (sm *SafeMap[K, V]) Get(k K) (V, bool) {
	sm.l.RLock()
	defer sm.l.RUnlock()
	v, ok := sm.m[k]
	return v, ok
}

func (sm *SafeMap[K, V]) Set(k K, v V) {
	sm.l.Lock()
	defer sm.l.Unlock()
	sm.m[k] = v
}

// SetIfAbsent 不存在时写入, 返回是否写入成功
func (sm *SafeMap[K, V]) SetIfAbsent(k K, v V) bool {
	sm.l.Lock()
	defer sm.l.Unlock()
	if _, ok := sm.m[k]; ok {
		return false
	}
	sm.m[k] = v
	return true
}

func (sm *SafeMap[K, V]) Del(k K) {
	sm.l.Lock()
	defer sm.l.Unlock()
	delete(sm.m, k)
}

// Pop 删除并返回旧值
func (sm *SafeMap[K, V]) Pop(k K) (V, bool) {
	sm.l.Lock()
	defer sm.l.Unlock()
	v, ok := sm.m[k]
	if ok {
		delete(sm.m, k)
	}
	return v, ok
}

func (sm *SafeMap[K, V]) Length() int {
	sm.l.RLock()
	defer sm.l.RUnlock()
	return len(sm.m)
}

// Range 遍历快照, f返回false时停止
func (sm *SafeMap[K, V]) Range(f func(k K, v V) bool) {
	sm.l.RLock()
	keys := make([]K, 0, len(sm.m))
	values := make([]V, 0, len(sm.m))
	for k, v := range sm.m {
		keys = append(keys, k)
		values = append(values, v)
	}
	sm.l.RUnlock()

	for i := range keys {
		if !f(keys[i], values[i]) {
			return
		}
	}
}
