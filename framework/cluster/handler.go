package cluster

import (
	"context"
	"fmt"

	"goactor/framework/actor"
	"goactor/framework/log"
	"goactor/framework/rpc"
)

// 集群rpc处理器
type clusterHandler struct {
	cluster *Cluster
}

// 种子节点: 广播新成员, 推送目录, 返回成员快照
func (h *clusterHandler) HandleRpcJoinReq(ctx rpc.Context, req *JoinReq, resp *JoinResp) error {
	c := h.cluster
	if c.stopped.Load() {
		return ErrClusterStopped
	}
	existing := c.others()
	if c.join(req.Name) {
		log.Debug("cluster join request of %v from %v", req.Name, ctx.RemoteAddr())
	}

	targets := make([]string, 0, len(existing))
	for _, member := range existing {
		if member != req.Name {
			targets = append(targets, member)
		}
	}
	err := c.broadcast(ctx, targets, func(ctx context.Context, member string) error {
		return c.call(ctx, member, &MemberJoinReq{Name: req.Name}, &MemberJoinResp{})
	})
	if err != nil {
		log.Warn("cluster broadcast join %v error: %v", req.Name, err)
	}

	if err := c.UpdateRemoteActors(ctx, req.Name); err != nil {
		return fmt.Errorf("update remote actors to %s: %w", req.Name, err)
	}
	resp.Members = c.Members()
	return nil
}

func (h *clusterHandler) HandleRpcMemberJoinReq(ctx rpc.Context, req *MemberJoinReq, resp *MemberJoinResp) error {
	h.cluster.join(req.Name)
	return nil
}

func (h *clusterHandler) HandleRpcAddRemoteRefReq(ctx rpc.Context, req *AddRemoteRefReq, resp *AddRemoteRefResp) error {
	h.cluster.addRemoteRefs(req.Names)
	return nil
}

func (h *clusterHandler) HandleRpcUpdateRemoteActorsReq(ctx rpc.Context, req *UpdateRemoteActorsReq, resp *UpdateRemoteActorsResp) error {
	h.cluster.addRemoteRefs(req.Names)
	return nil
}

func (h *clusterHandler) HandleRpcRemoveRemoteRefReq(ctx rpc.Context, req *RemoveRemoteRefReq, resp *RemoveRemoteRefResp) error {
	for _, name := range req.Names {
		h.cluster.system.RemoveRemoteRef(name)
	}
	return nil
}

func (h *clusterHandler) HandleRpcActorOfReq(ctx rpc.Context, req *ActorOfReq, resp *ActorOfResp) error {
	c := h.cluster
	if actor.HostOf(req.Name) != c.host {
		return fmt.Errorf("%w: %s is not owned by %s", ErrNoSuchMember, req.Name, c.id)
	}
	ref, err := c.ActorOf(ctx, req.Kind, actor.LOCAL, req.Name)
	if err != nil {
		return err
	}
	resp.Name = ref.Name()
	return nil
}

func (h *clusterHandler) HandleRpcStopActorReq(ctx rpc.Context, req *StopActorReq, resp *StopActorResp) error {
	c := h.cluster
	ref := c.system.ActorSelection(req.Name)
	if ref == nil || !c.system.Contains(ref) {
		return fmt.Errorf("%w: %s", actor.ErrActorNotFound, req.Name)
	}
	return c.Stop(ctx, ref)
}

func (h *clusterHandler) HandleRpcStopSystemReq(ctx rpc.Context, req *StopSystemReq, resp *StopSystemResp) error {
	log.Info("cluster member %v stop system requested by %v(%v)", h.cluster.id, req.From, ctx.RemoteAddr())
	return h.cluster.stopLocal(ctx)
}
