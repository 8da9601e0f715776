//go:build !unix

package network

import "syscall"

func controlSocket(c syscall.RawConn, ops *Options, listen bool) error {
	return nil
}
