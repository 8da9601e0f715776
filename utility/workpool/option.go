package workpool

import "time"

const (
	DefaultIdleTimeout = 60 * time.Second
	DefaultMaxIdle     = 256
)

type Option func(ops *Options)

type Options struct {
	idleTimeout  time.Duration // 空闲worker存活时间
	maxIdle      int           // 最多缓存的空闲worker数量
	panicHandler func(r any)
}

func LoadOptions(options ...Option) *Options {
	ops := &Options{
		idleTimeout: DefaultIdleTimeout,
		maxIdle:     DefaultMaxIdle,
	}
	for _, option := range options {
		option(ops)
	}
	return ops
}

func WithIdleTimeout(d time.Duration) Option {
	return func(ops *Options) {
		if d > 0 {
			ops.idleTimeout = d
		}
	}
}

func WithMaxIdle(n int) Option {
	return func(ops *Options) {
		if n >= 0 {
			ops.maxIdle = n
		}
	}
}

// WithPanicHandler task panic时回调, 未设置时panic会被吞掉
func WithPanicHandler(handler func(r any)) Option {
	return func(ops *Options) {
		ops.panicHandler = handler
	}
}
