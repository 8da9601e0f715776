package network

import (
	"context"
	"net"
	"syscall"
)

// TcpListen 监听地址, 设置SO_REUSEADDR以及收发缓冲区
func TcpListen(ctx context.Context, addr string, options ...Option) (net.Listener, error) {
	ops := loadOptions(options)
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			return controlSocket(c, ops, true)
		},
	}
	return lc.Listen(ctx, "tcp", addr)
}

func TcpConnect(ctx context.Context, addr string, options ...Option) (net.Conn, error) {
	ops := loadOptions(options)
	dialer := net.Dialer{
		Timeout: ops.dialTimeout,
		Control: func(network, address string, c syscall.RawConn) error {
			return controlSocket(c, ops, false)
		},
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(ops.socketTcpNoDelay)
	}
	return conn, nil
}

// AcceptOptions 对accept得到的连接应用选项
func AcceptOptions(conn net.Conn, options ...Option) {
	ops := loadOptions(options)
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(ops.socketTcpNoDelay)
	}
}
