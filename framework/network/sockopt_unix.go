//go:build unix

package network

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func controlSocket(c syscall.RawConn, ops *Options, listen bool) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		if listen {
			if sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); sockErr != nil {
				return
			}
		}
		if ops.socketSendBufferSize > 0 {
			if sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, ops.socketSendBufferSize); sockErr != nil {
				return
			}
		}
		if ops.socketRcvBufferSize > 0 {
			sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, ops.socketRcvBufferSize)
		}
	})
	if err != nil {
		return err
	}
	return sockErr
}
