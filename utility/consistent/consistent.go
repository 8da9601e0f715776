package consistent

import (
	"strconv"
	"sync"

	"github.com/twmb/murmur3"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const DefaultNumberOfReplicas = 20

// Ring 一致性hash环, 用于把无名字的actor均匀分配到集群成员
type Ring struct {
	lock             sync.RWMutex
	numberOfReplicas int
	circle           map[uint32]string
	members          map[string]struct{}
	sortedHash       []uint32
}

func NewRing(replicas int) *Ring {
	if replicas <= 0 {
		replicas = DefaultNumberOfReplicas
	}
	return &Ring{
		numberOfReplicas: replicas,
		circle:           map[uint32]string{},
		members:          map[string]struct{}{},
	}
}

func (r *Ring) Add(member string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.members[member]; ok {
		return
	}
	for i := 0; i < r.numberOfReplicas; i++ {
		r.circle[hash(replicaKey(member, i))] = member
	}
	r.members[member] = struct{}{}
	r.updateSortedHash()
}

func (r *Ring) Remove(member string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.members[member]; !ok {
		return
	}
	for i := 0; i < r.numberOfReplicas; i++ {
		delete(r.circle, hash(replicaKey(member, i)))
	}
	delete(r.members, member)
	r.updateSortedHash()
}

// Get 返回key落在环上的成员, 环为空时返回""
func (r *Ring) Get(key string) string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if len(r.sortedHash) == 0 {
		return ""
	}

	hashValue := hash(key)
	index, _ := slices.BinarySearch(r.sortedHash, hashValue)
	if index >= len(r.sortedHash) {
		index = 0
	}
	return r.circle[r.sortedHash[index]]
}

func (r *Ring) Has(member string) bool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	_, ok := r.members[member]
	return ok
}

func (r *Ring) Members() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	arr := maps.Keys(r.members)
	slices.Sort(arr)
	return arr
}

func (r *Ring) updateSortedHash() {
	arr := maps.Keys(r.circle)
	slices.Sort(arr)
	r.sortedHash = arr
}

func hash(key string) uint32 {
	return murmur3.Sum32([]byte(key))
}

func replicaKey(member string, index int) string {
	return member + "#" + strconv.Itoa(index)
}
