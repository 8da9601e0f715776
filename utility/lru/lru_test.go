package lru

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRUEvict(t *testing.T) {
	l := NewLRU[string, int](2)
	assert.True(t, l.Set("a", 1))
	assert.True(t, l.Set("b", 2))

	// a变成最新
	v, ok := l.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	assert.True(t, l.Set("c", 3))
	assert.Equal(t, 2, l.Len())
	_, ok = l.Peek("b")
	assert.False(t, ok)

	var keys []string
	l.Range(func(k string, v int) bool {
		keys = append(keys, k)
		return true
	})
	assert.Equal(t, []string{"c", "a"}, keys)
}

func TestLRUUpdateAndDel(t *testing.T) {
	l := NewLRU[string, string](0)
	assert.True(t, l.Set("k", "v1"))
	assert.False(t, l.Set("k", "v2"))
	v, _ := l.Get("k")
	assert.Equal(t, "v2", v)

	assert.True(t, l.Del("k"))
	assert.False(t, l.Del("k"))
	assert.Equal(t, 0, l.Len())
}

func TestLRUConcurrent(t *testing.T) {
	l := NewLRU[string, int](64)
	wg := sync.WaitGroup{}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				k := fmt.Sprintf("%d-%d", i, j%100)
				l.Set(k, j)
				l.Get(k)
				if j%7 == 0 {
					l.Del(k)
				}
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, l.Len(), 64)
}
