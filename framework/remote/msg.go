package remote

import (
	"goactor/framework/actor"
	"goactor/framework/registry"
	"goactor/framework/rpc"
)

const (
	MsgIdForwardReq int32 = 1001
)

// 跨进程投递一条actor消息
type ForwardReq struct {
	From    string       `msgpack:"from"`
	To      string       `msgpack:"to"`
	Payload *rpc.Payload `msgpack:"payload"`
}

type ForwardResp struct{}

func init() {
	rpc.RegisterMsg(MsgIdForwardReq, &ForwardReq{}, &ForwardResp{})

	// 跨进程后仍可以用errors.Is判断
	rpc.RegisterError(100, actor.ErrActorNotFound)
	rpc.RegisterError(101, actor.ErrUnsupportedMessage)
	rpc.RegisterError(102, actor.ErrRemoteUnavailable)
	rpc.RegisterError(103, actor.ErrConstruction)
	rpc.RegisterError(104, actor.ErrActorExists)
	rpc.RegisterError(105, actor.ErrSystemStopped)
	rpc.RegisterError(110, registry.ErrAlreadyBound)
	rpc.RegisterError(111, registry.ErrNotBound)
	rpc.RegisterError(120, rpc.ErrPayloadNotRegistered)
}
