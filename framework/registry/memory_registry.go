package registry

import (
	"context"
	"strings"
	"sync"
)

// MemoryRegistry 进程内名字服务, 单机或测试时多个节点共用一个实例
type MemoryRegistry struct {
	lock     sync.RWMutex
	bindings map[string]string
	watchers map[chan WatchEvent]string
	closed   bool
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		bindings: map[string]string{},
		watchers: map[chan WatchEvent]string{},
	}
}

func (reg *MemoryRegistry) Bind(ctx context.Context, name string, endpoint string) error {
	reg.lock.Lock()
	defer reg.lock.Unlock()
	if reg.closed {
		return ErrClosed
	}
	if _, ok := reg.bindings[name]; ok {
		return ErrAlreadyBound
	}
	reg.bindings[name] = endpoint
	reg.notify(WatchEvent{EventType: WatchEventTypeUpdate, Name: name, Endpoint: endpoint})
	return nil
}

func (reg *MemoryRegistry) Lookup(ctx context.Context, name string) (string, error) {
	reg.lock.RLock()
	defer reg.lock.RUnlock()
	if reg.closed {
		return "", ErrClosed
	}
	endpoint, ok := reg.bindings[name]
	if !ok {
		return "", ErrNotBound
	}
	return endpoint, nil
}

func (reg *MemoryRegistry) Unbind(ctx context.Context, name string) error {
	reg.lock.Lock()
	defer reg.lock.Unlock()
	if reg.closed {
		return ErrClosed
	}
	if _, ok := reg.bindings[name]; !ok {
		return nil
	}
	delete(reg.bindings, name)
	reg.notify(WatchEvent{EventType: WatchEventTypeDelete, Name: name})
	return nil
}

func (reg *MemoryRegistry) List(ctx context.Context, prefix string) (map[string]string, error) {
	reg.lock.RLock()
	defer reg.lock.RUnlock()
	if reg.closed {
		return nil, ErrClosed
	}
	ret := make(map[string]string)
	for name, endpoint := range reg.bindings {
		if strings.HasPrefix(name, prefix) {
			ret[name] = endpoint
		}
	}
	return ret, nil
}

func (reg *MemoryRegistry) Watch(ctx context.Context, prefix string) (<-chan WatchEvent, error) {
	reg.lock.Lock()
	defer reg.lock.Unlock()
	if reg.closed {
		return nil, ErrClosed
	}

	ch := make(chan WatchEvent, 64)
	reg.watchers[ch] = prefix
	go func() {
		<-ctx.Done()
		reg.lock.Lock()
		defer reg.lock.Unlock()
		if _, ok := reg.watchers[ch]; ok {
			delete(reg.watchers, ch)
			close(ch)
		}
	}()
	return ch, nil
}

// 需要持有写锁, 消费太慢的watcher会丢事件
func (reg *MemoryRegistry) notify(event WatchEvent) {
	for ch, prefix := range reg.watchers {
		if !strings.HasPrefix(event.Name, prefix) {
			continue
		}
		select {
		case ch <- event:
		default:
		}
	}
}

func (reg *MemoryRegistry) Close() error {
	reg.lock.Lock()
	defer reg.lock.Unlock()
	if reg.closed {
		return nil
	}
	reg.closed = true
	for ch := range reg.watchers {
		close(ch)
	}
	reg.watchers = map[chan WatchEvent]string{}
	return nil
}
