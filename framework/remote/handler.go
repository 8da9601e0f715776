package remote

import (
	"goactor/framework/actor"
	"goactor/framework/rpc"
)

type remoteHandler struct {
	remote *Remote
}

func (h *remoteHandler) HandleRpcForwardReq(ctx rpc.Context, req *ForwardReq, resp *ForwardResp) error {
	system := h.remote.system.Load()
	if system == nil {
		return actor.ErrSystemStopped
	}
	msg, err := rpc.DecodePayload(req.Payload)
	if err != nil {
		return err
	}
	return system.Deliver(ctx, req.From, req.To, msg)
}
