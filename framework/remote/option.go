package remote

import (
	"time"

	"goactor/framework/rpc"
)

type Option func(ops *Options)

type Options struct {
	listen      string
	advertise   string
	callTimeout time.Duration
	dialTimeout time.Duration
	rpcOptions  []rpc.ManagerOption
	cacheSize   int
}

func LoadOptions(options ...Option) *Options {
	ops := &Options{
		listen:    "127.0.0.1:0",
		cacheSize: 4096,
	}
	for _, option := range options {
		option(ops)
	}
	return ops
}

// 监听地址, 端口为0时由系统分配
func WithListen(addr string) Option {
	return func(ops *Options) {
		ops.listen = addr
	}
}

// 写入名字服务的地址, 默认为实际监听地址
func WithAdvertise(endpoint string) Option {
	return func(ops *Options) {
		ops.advertise = endpoint
	}
}

func WithCallTimeout(timeout time.Duration) Option {
	return func(ops *Options) {
		ops.callTimeout = timeout
	}
}

func WithDialTimeout(timeout time.Duration) Option {
	return func(ops *Options) {
		ops.dialTimeout = timeout
	}
}

func WithRpcOptions(options ...rpc.ManagerOption) Option {
	return func(ops *Options) {
		ops.rpcOptions = append(ops.rpcOptions, options...)
	}
}

// 名字解析缓存的容量
func WithCacheSize(size int) Option {
	return func(ops *Options) {
		if size > 0 {
			ops.cacheSize = size
		}
	}
}
