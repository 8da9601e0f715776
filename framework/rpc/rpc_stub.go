package rpc

import (
	"context"
	"fmt"
	"sync"

	"goactor/framework/log"
	"goactor/framework/network"
	"goactor/utility/safemap"
)

// rpc网络代理, 一个endpoint一条连接, 首次调用时建立
type RpcStub struct {
	mgr      *RpcManager
	Endpoint string

	connMu sync.Mutex
	conn   *rpcConn
}

func newRpcStub(mgr *RpcManager, endpoint string) *RpcStub {
	return &RpcStub{
		mgr:      mgr,
		Endpoint: endpoint,
	}
}

// connect rpc remote server, 断开后下次调用重连
func (stub *RpcStub) lazyInitConn(ctx context.Context) (*rpcConn, error) {
	stub.connMu.Lock()
	defer stub.connMu.Unlock()

	if stub.conn != nil && !stub.conn.closed.Load() {
		return stub.conn, nil
	}

	ops := stub.mgr.ops
	netOptions := append([]network.Option{network.WithDialTimeout(ops.dialTimeout)}, ops.netOptions...)
	netconn, err := network.TcpConnect(ctx, stub.Endpoint, netOptions...)
	if err != nil {
		log.Error("stub try to connect error : %v, endpoint: %v", err, stub.Endpoint)
		return nil, fmt.Errorf("%w: connect %s: %v", ErrRpcClosed, stub.Endpoint, err)
	}

	conn := newRpcConn(stub.mgr, netconn)
	if !stub.mgr.trackConn(conn, false) {
		_ = netconn.Close()
		return nil, ErrRpcClosed
	}
	stub.conn = conn
	log.Info("rpc stub connect success, sessionId: %v, endpoint: %v", conn.sessionId, stub.Endpoint)
	return conn, nil
}

func (stub *RpcStub) close() {
	stub.connMu.Lock()
	defer stub.connMu.Unlock()

	if stub.conn != nil {
		stub.conn.close()
		stub.conn = nil
	}
}

// 网络代理管道管理器
type RpcStubManager struct {
	mgr   *RpcManager
	stubs *safemap.SafeMap[string, *RpcStub]
}

func newRpcStubManager(mgr *RpcManager) *RpcStubManager {
	return &RpcStubManager{
		mgr:   mgr,
		stubs: safemap.NewSafeMap[string, *RpcStub](),
	}
}

func (stubMgr *RpcStubManager) getStub(endpoint string) *RpcStub {
	if stub, ok := stubMgr.stubs.Get(endpoint); ok {
		return stub
	}
	stub := newRpcStub(stubMgr.mgr, endpoint)
	if !stubMgr.stubs.SetIfAbsent(endpoint, stub) {
		stub, _ = stubMgr.stubs.Get(endpoint)
	}
	return stub
}

func (stubMgr *RpcStubManager) delStub(endpoint string) bool {
	stub, ok := stubMgr.stubs.Pop(endpoint)
	if !ok {
		return false
	}
	stub.close()
	log.Info("delete rpc stub [%v]", endpoint)
	return true
}

func (stubMgr *RpcStubManager) closeAll() {
	stubMgr.stubs.Range(func(endpoint string, stub *RpcStub) bool {
		stub.close()
		return true
	})
}
