package cluster

import "time"

type Option func(ops *Options)

type Options struct {
	seed          string
	joinRetry     int
	joinInterval  time.Duration
	ringReplicas  int
	broadcastSize int
}

func LoadOptions(options ...Option) *Options {
	ops := &Options{
		joinRetry:     10,
		joinInterval:  200 * time.Millisecond,
		ringReplicas:  64,
		broadcastSize: 16,
	}
	for _, option := range options {
		option(ops)
	}
	return ops
}

// 种子节点的host, 为空或者等于自身host时自己作为种子
func WithSeed(seed string) Option {
	return func(ops *Options) {
		ops.seed = seed
	}
}

// 种子节点还没有启动时的重试
func WithJoinRetry(times int, interval time.Duration) Option {
	return func(ops *Options) {
		if times > 0 {
			ops.joinRetry = times
		}
		if interval > 0 {
			ops.joinInterval = interval
		}
	}
}

func WithRingReplicas(replicas int) Option {
	return func(ops *Options) {
		if replicas > 0 {
			ops.ringReplicas = replicas
		}
	}
}

// 广播时的最大并发数
func WithBroadcastSize(n int) Option {
	return func(ops *Options) {
		if n > 0 {
			ops.broadcastSize = n
		}
	}
}
