package network

import "time"

type Option func(ops *Options)

type Options struct {
	socketSendBufferSize int
	socketRcvBufferSize  int
	socketTcpNoDelay     bool
	dialTimeout          time.Duration
}

func loadOptions(op []Option) *Options {
	ops := &Options{
		socketTcpNoDelay: true,
		dialTimeout:      time.Second,
	}
	for _, f := range op {
		f(ops)
	}
	return ops
}

// <=0 时使用系统默认值
func WithSocketSendBufferSize(sendBufSize int) Option {
	return func(ops *Options) {
		ops.socketSendBufferSize = sendBufSize
	}
}

func WithSocketRcvBufferSize(rcvBufSize int) Option {
	return func(ops *Options) {
		ops.socketRcvBufferSize = rcvBufSize
	}
}

func WithSocketTcpNoDelay(tcpNoDelay bool) Option {
	return func(ops *Options) {
		ops.socketTcpNoDelay = tcpNoDelay
	}
}

func WithDialTimeout(timeout time.Duration) Option {
	return func(ops *Options) {
		if timeout > 0 {
			ops.dialTimeout = timeout
		}
	}
}
