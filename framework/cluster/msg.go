package cluster

import (
	"goactor/framework/rpc"
)

const (
	MsgIdJoinReq               int32 = 1101
	MsgIdMemberJoinReq         int32 = 1102
	MsgIdAddRemoteRefReq       int32 = 1103
	MsgIdUpdateRemoteActorsReq int32 = 1104
	MsgIdRemoveRemoteRefReq    int32 = 1105
	MsgIdActorOfReq            int32 = 1106
	MsgIdStopActorReq          int32 = 1107
	MsgIdStopSystemReq         int32 = 1108
)

// 新节点向种子节点申请加入
type JoinReq struct {
	Name string `msgpack:"name"`
}

type JoinResp struct {
	Members []string `msgpack:"members"`
}

// 种子节点通知已有成员
type MemberJoinReq struct {
	Name string `msgpack:"name"`
}

type MemberJoinResp struct{}

type AddRemoteRefReq struct {
	Names []string `msgpack:"names"`
}

type AddRemoteRefResp struct{}

// 新成员加入时推送完整目录
type UpdateRemoteActorsReq struct {
	Names []string `msgpack:"names"`
}

type UpdateRemoteActorsResp struct{}

type RemoveRemoteRefReq struct {
	Names []string `msgpack:"names"`
}

type RemoveRemoteRefResp struct{}

type ActorOfReq struct {
	Kind string `msgpack:"kind"`
	Name string `msgpack:"name"`
}

type ActorOfResp struct {
	Name string `msgpack:"name"`
}

type StopActorReq struct {
	Name string `msgpack:"name"`
}

type StopActorResp struct{}

type StopSystemReq struct {
	From string `msgpack:"from"`
}

type StopSystemResp struct{}

func init() {
	rpc.RegisterMsg(MsgIdJoinReq, &JoinReq{}, &JoinResp{})
	rpc.RegisterMsg(MsgIdMemberJoinReq, &MemberJoinReq{}, &MemberJoinResp{})
	rpc.RegisterMsg(MsgIdAddRemoteRefReq, &AddRemoteRefReq{}, &AddRemoteRefResp{})
	rpc.RegisterMsg(MsgIdUpdateRemoteActorsReq, &UpdateRemoteActorsReq{}, &UpdateRemoteActorsResp{})
	rpc.RegisterMsg(MsgIdRemoveRemoteRefReq, &RemoveRemoteRefReq{}, &RemoveRemoteRefResp{})
	rpc.RegisterMsg(MsgIdActorOfReq, &ActorOfReq{}, &ActorOfResp{})
	rpc.RegisterMsg(MsgIdStopActorReq, &StopActorReq{}, &StopActorResp{})
	rpc.RegisterMsg(MsgIdStopSystemReq, &StopSystemReq{}, &StopSystemResp{})

	rpc.RegisterError(130, ErrNoSuchMember)
	rpc.RegisterError(131, ErrClusterStopped)
}
