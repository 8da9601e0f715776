package actor

import (
	"goactor/utility/workpool"

	"github.com/prometheus/client_golang/prometheus"
)

type Option func(ops *Options)

type Options struct {
	name       string
	host       string
	transport  Transport
	pool       *workpool.Pool
	registerer prometheus.Registerer
	shardNum   uint32
}

func LoadOptions(options ...Option) *Options {
	ops := &Options{
		name:     "default",
		host:     "localhost",
		shardNum: 64,
	}
	for _, option := range options {
		option(ops)
	}
	return ops
}

func WithName(name string) Option {
	return func(ops *Options) {
		ops.name = name
	}
}

// WithHost 生成actor名字时使用的地址前缀
func WithHost(host string) Option {
	return func(ops *Options) {
		ops.host = host
	}
}

// WithTransport 设置后系统运行在CLUSTER模式
func WithTransport(transport Transport) Option {
	return func(ops *Options) {
		ops.transport = transport
	}
}

// WithPool 使用外部的协程池, 系统Shutdown时不会关闭它
func WithPool(pool *workpool.Pool) Option {
	return func(ops *Options) {
		ops.pool = pool
	}
}

func WithRegisterer(reg prometheus.Registerer) Option {
	return func(ops *Options) {
		ops.registerer = reg
	}
}

func WithShardNum(n uint32) Option {
	return func(ops *Options) {
		ops.shardNum = n
	}
}
