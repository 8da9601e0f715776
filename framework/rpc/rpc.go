package rpc

import (
	"errors"
	"sync/atomic"
	"time"
)

var (
	ErrRpcTimeOut          = errors.New("rpc time out error")
	ErrRpcClosed           = errors.New("rpc connection closed")
	ErrRpcHandlerNotFound  = errors.New("rpc handler not found")
	ErrRpcMsgNotRegistered = errors.New("rpc msg not registered")
	ErrRpcRemote           = errors.New("rpc remote error")
)

const RpcHandlerMethodPrefix = "HandleRpc"

var (
	DefaultRpcTimeout = time.Second * 3
	nextRpcCallId     = int64(1000000)
)

type rpcResult struct {
	msg *InnerMessage
	err error
}

// 一次rpc请求
type RpcEntry struct {
	CallId   int64  // rpc请求唯一ID
	MsgId    int32  // 消息ID
	Endpoint string // 目标地址

	Timeout time.Duration

	ReqMsg   any
	RespMsg  any
	RespChan chan rpcResult // 收到对端返回或者连接断开
}

func genNextRpcCallId() int64 {
	return atomic.AddInt64(&nextRpcCallId, 1)
}
