package rpc

import (
	"time"

	"goactor/framework/network"
	"goactor/utility/workpool"
)

// 单次调用选项
type Option func(ops *Options)

type Options struct {
	RpcTimout time.Duration // rpc超时时间
}

func LoadOptions(options ...Option) *Options {
	ops := &Options{}
	for _, option := range options {
		option(ops)
	}
	return ops
}

func WithTimeout(timeout time.Duration) Option {
	return func(ops *Options) {
		ops.RpcTimout = timeout
	}
}

// RpcManager选项
type ManagerOption func(ops *ManagerOptions)

type ManagerOptions struct {
	callTimeout time.Duration
	dialTimeout time.Duration
	pool        *workpool.Pool
	netOptions  []network.Option
}

func loadManagerOptions(options ...ManagerOption) *ManagerOptions {
	ops := &ManagerOptions{
		callTimeout: DefaultRpcTimeout,
		dialTimeout: time.Second,
	}
	for _, option := range options {
		option(ops)
	}
	return ops
}

func WithCallTimeout(timeout time.Duration) ManagerOption {
	return func(ops *ManagerOptions) {
		if timeout > 0 {
			ops.callTimeout = timeout
		}
	}
}

func WithDialTimeout(timeout time.Duration) ManagerOption {
	return func(ops *ManagerOptions) {
		if timeout > 0 {
			ops.dialTimeout = timeout
		}
	}
}

// 处理请求的协程池, 不设置时使用自带的
func WithPool(pool *workpool.Pool) ManagerOption {
	return func(ops *ManagerOptions) {
		ops.pool = pool
	}
}

func WithNetOptions(options ...network.Option) ManagerOption {
	return func(ops *ManagerOptions) {
		ops.netOptions = append(ops.netOptions, options...)
	}
}
