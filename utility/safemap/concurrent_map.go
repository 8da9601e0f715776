package safemap

import "github.com/twmb/murmur3"

type HashFunc[K comparable] func(k K) uint32

// StringHash 默认的字符串分片hash
func StringHash(k string) uint32 {
	return murmur3.Sum32([]byte(k))
}

type ConcurrentMap[K comparable, V any] struct {
	shardNum uint32
	shards   []*SafeMap[K, V]
	hashFunc HashFunc[K]
}

func NewConcurrentMap[K comparable, V any](shardNum uint32, hashFunc HashFunc[K]) *ConcurrentMap[K, V] {
	if shardNum <= 1 {
		shardNum = 1
	}
	m := &ConcurrentMap[K, V]{
		shardNum: shardNum,
		hashFunc: hashFunc,
	}

	m.shards = make([]*SafeMap[K, V], shardNum)
	for i := uint32(0); i < shardNum; i++ {
		m.shards[i] = NewSafeMap[K, V]()
	}

	return m
}

func (cm *ConcurrentMap[K, V]) getShard(k K) int {
	hashValue := cm.hashFunc(k)

	if hashValue < cm.shardNum {
		return int(hashValue)
	}
	return int(hashValue % cm.shardNum)
}

func (cm *ConcurrentMap[K, V]) Get(k K) (V, bool) {
	index := cm.getShard(k)
	return cm.shards[index].Get(k)
}

func (cm *ConcurrentMap[K, V]) Set(k K, v V) {
	index := cm.getShard(k)
	cm.shards[index].Set(k, v)
}

func (cm *ConcurrentMap[K, V]) SetIfAbsent(k K, v V) bool {
	index := cm.getShard(k)
	return cm.shards[index].SetIfAbsent(k, v)
}

func (cm *ConcurrentMap[K, V]) Del(k K) {
	index := cm.getShard(k)
	cm.shards[index].Del(k)
}

func (cm *ConcurrentMap[K, V]) Pop(k K) (V, bool) {
	index := cm.getShard(k)
	return cm.shards[index].Pop(k)
}

func (cm *ConcurrentMap[K, V]) Length() int {
	n := 0
	for _, shard := range cm.shards {
		n += shard.Length()
	}
	return n
}

func (cm *ConcurrentMap[K, V]) Range(f func(k K, v V) bool) {
	stop := false
	for _, shard := range cm.shards {
		shard.Range(func(k K, v V) bool {
			if !f(k, v) {
				stop = true
				return false
			}
			return true
		})
		if stop {
			return
		}
	}
}

func (cm *ConcurrentMap[K, V]) Keys() []K {
	keys := make([]K, 0, cm.Length())
	cm.Range(func(k K, _ V) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}
