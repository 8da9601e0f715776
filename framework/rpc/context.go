package rpc

import (
	"context"
)

// handler收到的上下文
type Context interface {
	context.Context
	RemoteAddr() string
}

func createContext(parent context.Context, remoteAddr string) Context {
	return &ContextImpl{
		Context:    parent,
		remoteAddr: remoteAddr,
	}
}

type ContextImpl struct {
	context.Context
	remoteAddr string
}

// 发起请求的连接地址
func (ctx *ContextImpl) RemoteAddr() string {
	return ctx.remoteAddr
}
