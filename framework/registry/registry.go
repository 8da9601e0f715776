package registry

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrAlreadyBound = errors.New("name already bound")
	ErrNotBound     = errors.New("name not bound")
	ErrClosed       = errors.New("registry closed")
)

const (
	RegistryDefaultTTL = 15
	DefaultBasePath    = "/goactor"
)

// Registry 名字服务: 集群内唯一名字 -> rpc endpoint
type Registry interface {
	// Bind 名字已存在时返回ErrAlreadyBound
	Bind(ctx context.Context, name string, endpoint string) error
	// Lookup 名字不存在时返回ErrNotBound
	Lookup(ctx context.Context, name string) (string, error)
	Unbind(ctx context.Context, name string) error
	// List 返回以prefix开头的所有绑定
	List(ctx context.Context, prefix string) (map[string]string, error)
	Close() error
}

type WatchEventType int

const (
	WatchEventTypeNone   WatchEventType = 0
	WatchEventTypeUpdate WatchEventType = 1
	WatchEventTypeDelete WatchEventType = 2
)

type WatchEvent struct {
	Err       error
	EventType WatchEventType
	Name      string
	Endpoint  string
}

// Watcher 支持变更通知的名字服务, ctx结束后channel关闭
type Watcher interface {
	Watch(ctx context.Context, prefix string) (<-chan WatchEvent, error)
}

func joinPath(basePath string, name string) string {
	return strings.TrimSuffix(basePath, "/") + "/" + name
}

func trimPath(basePath string, key string) string {
	return strings.TrimPrefix(key, strings.TrimSuffix(basePath, "/")+"/")
}
