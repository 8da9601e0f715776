package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"reflect"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"

	"goactor/framework/log"
	"goactor/framework/network"
	"goactor/utility/safemap"
	"goactor/utility/workpool"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	contextType = reflect.TypeOf((*Context)(nil)).Elem()
)

// RPC管理器(thread safe)
type RpcManager struct {
	ops    *ManagerOptions
	ctx    context.Context
	cancel context.CancelFunc

	handlerMu    sync.RWMutex
	msgHandleMap map[int32]reflect.Value

	pool    *workpool.Pool
	ownPool bool

	lock     sync.Mutex
	listener net.Listener
	closed   atomic.Bool
	wg       sync.WaitGroup

	stubMgr *RpcStubManager
	inbound *safemap.SafeMap[int64, *rpcConn]
}

// msgHandler为struct指针, 可以为nil(只发起调用)
func NewRpcManager(msgHandler any, options ...ManagerOption) *RpcManager {
	ops := loadManagerOptions(options...)
	mgr := &RpcManager{
		ops:          ops,
		msgHandleMap: map[int32]reflect.Value{},
		pool:         ops.pool,
		inbound:      safemap.NewSafeMap[int64, *rpcConn](),
	}
	mgr.ctx, mgr.cancel = context.WithCancel(context.Background())
	if mgr.pool == nil {
		mgr.pool = workpool.NewPool(workpool.WithPanicHandler(func(r any) {
			log.Error("rpc worker panic: %v", r)
		}))
		mgr.ownPool = true
	}
	mgr.stubMgr = newRpcStubManager(mgr)

	if msgHandler != nil {
		mgr.SetMsgHandler(msgHandler)
	}
	return mgr
}

// 设置rpc消息处理器, 替换已有的
// 方法签名: HandleRpc<ReqName>(ctx rpc.Context, req *ReqName, resp *RespName) error
func (mgr *RpcManager) SetMsgHandler(handler any) {
	methodMap := parseMsgHandler(handler)
	mgr.handlerMu.Lock()
	mgr.msgHandleMap = methodMap
	mgr.handlerMu.Unlock()
}

// AddMsgHandler 在已有的处理器上追加, 同一消息以后加的为准
func (mgr *RpcManager) AddMsgHandler(handler any) {
	methodMap := parseMsgHandler(handler)
	mgr.handlerMu.Lock()
	for msgId, method := range methodMap {
		mgr.msgHandleMap[msgId] = method
	}
	mgr.handlerMu.Unlock()
}

func parseMsgHandler(handler any) map[int32]reflect.Value {
	methodMap := map[int32]reflect.Value{}

	refType := reflect.TypeOf(handler)
	refValue := reflect.ValueOf(handler)
	methodCount := refType.NumMethod()
	for i := 0; i < methodCount; i++ {
		methodName := refType.Method(i).Name
		if !strings.HasPrefix(methodName, RpcHandlerMethodPrefix) {
			continue
		}
		reqMsgName := methodName[len(RpcHandlerMethodPrefix):]
		reqMsgId, ok := GetMsgIdByName(reqMsgName)
		if !ok {
			log.Error("rpc handler %v: msg %v not registered", methodName, reqMsgName)
			continue
		}
		method := refValue.Method(i)
		if !checkHandlerType(method.Type(), getMsgInfo(reqMsgId)) {
			log.Error("rpc handler %v signature error: %v", methodName, method.Type())
			continue
		}
		methodMap[reqMsgId] = method
	}
	return methodMap
}

func checkHandlerType(t reflect.Type, info *msgInfo) bool {
	if t.NumIn() != 3 || t.NumOut() != 1 {
		return false
	}
	return t.In(0) == contextType &&
		t.In(1) == reflect.PointerTo(info.reqType) &&
		t.In(2) == reflect.PointerTo(info.respType) &&
		t.Out(0) == errorType
}

func (mgr *RpcManager) getMsgHandlerFunc(msgId int32) (reflect.Value, bool) {
	mgr.handlerMu.RLock()
	defer mgr.handlerMu.RUnlock()
	method, ok := mgr.msgHandleMap[msgId]
	return method, ok
}

// 监听端口
func (mgr *RpcManager) TcpListen(ctx context.Context, addr string) error {
	mgr.lock.Lock()
	defer mgr.lock.Unlock()

	if mgr.closed.Load() {
		return ErrRpcClosed
	}
	if mgr.listener != nil {
		return fmt.Errorf("rpc manager already listening on %v", mgr.listener.Addr())
	}
	ln, err := network.TcpListen(ctx, addr, mgr.ops.netOptions...)
	if err != nil {
		return err
	}
	mgr.listener = ln
	mgr.wg.Add(1)
	go mgr.acceptLoop(ln)
	log.Info("rpc listen on %v", ln.Addr())
	return nil
}

// Addr 实际监听的地址, 端口为0时由系统分配
func (mgr *RpcManager) Addr() string {
	mgr.lock.Lock()
	defer mgr.lock.Unlock()
	if mgr.listener == nil {
		return ""
	}
	return mgr.listener.Addr().String()
}

func (mgr *RpcManager) acceptLoop(ln net.Listener) {
	defer mgr.wg.Done()
	for {
		netconn, err := ln.Accept()
		if err != nil {
			if mgr.closed.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			log.Error("rpc accept error: %v", err)
			continue
		}
		network.AcceptOptions(netconn, mgr.ops.netOptions...)

		conn := newRpcConn(mgr, netconn)
		if !mgr.trackConn(conn, true) {
			_ = netconn.Close()
			return
		}
		log.Info("rpc OnAccept, sessionId: %v, peer: %v", conn.sessionId, conn.remoteAddr)
	}
}

// 启动连接的读协程, manager关闭后返回false
func (mgr *RpcManager) trackConn(conn *rpcConn, inbound bool) bool {
	mgr.lock.Lock()
	defer mgr.lock.Unlock()
	if mgr.closed.Load() {
		return false
	}
	if inbound {
		mgr.inbound.Set(conn.sessionId, conn)
	}
	mgr.wg.Add(1)
	go conn.readLoop()
	return true
}

func (mgr *RpcManager) onConnClosed(conn *rpcConn) {
	mgr.inbound.Del(conn.sessionId)
}

// rpc同步调用, endpoint为对端监听地址
func (mgr *RpcManager) Call(ctx context.Context, endpoint string, req any, resp any, options ...Option) error {
	if req == nil {
		return errors.New("request param nil error")
	}
	if resp == nil {
		return errors.New("response param nil error")
	}
	if mgr.closed.Load() {
		return ErrRpcClosed
	}
	msgId, ok := getMsgIdByReq(req)
	if !ok {
		return fmt.Errorf("%w: %T", ErrRpcMsgNotRegistered, req)
	}

	ops := LoadOptions(options...)
	rpc := &RpcEntry{
		CallId:   genNextRpcCallId(),
		MsgId:    msgId,
		Endpoint: endpoint,
		Timeout:  mgr.ops.callTimeout,
		ReqMsg:   req,
		RespMsg:  resp,
		RespChan: make(chan rpcResult, 1),
	}
	if ops.RpcTimout > 0 {
		rpc.Timeout = ops.RpcTimout
	}

	body, err := msgpack.Marshal(req)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, rpc.Timeout)
	defer cancel()

	conn, err := mgr.stubMgr.getStub(endpoint).lazyInitConn(ctx)
	if err != nil {
		return err
	}
	if err := conn.addPending(rpc); err != nil {
		return err
	}
	msg := &InnerMessage{Head: InnerMessageHead{CallId: rpc.CallId, MsgID: msgId}, Body: body}
	if err := conn.write(msg); err != nil {
		conn.removePending(rpc.CallId)
		if errors.Is(err, ErrRpcClosed) {
			return err
		}
		return fmt.Errorf("%w: write %s: %v", ErrRpcClosed, endpoint, err)
	}

	// wait for rpc response util timeout
	select {
	case result := <-rpc.RespChan:
		if result.err != nil {
			return result.err
		}
		return decodeResponse(result.msg, resp)
	case <-ctx.Done():
		conn.removePending(rpc.CallId)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Debug("rpc timeout : CallId : %v, endpoint: %v", rpc.CallId, endpoint)
			return fmt.Errorf("%w: callId %v, endpoint %v", ErrRpcTimeOut, rpc.CallId, endpoint)
		}
		return ctx.Err()
	}
}

func decodeResponse(msg *InnerMessage, resp any) error {
	if msg.Head.ErrCode != ErrCodeOk {
		body := &errorBody{}
		if err := msgpack.Unmarshal(msg.Body, body); err != nil {
			body = nil
		}
		return decodeError(msg.Head.ErrCode, body)
	}
	return msgpack.Unmarshal(msg.Body, resp)
}

func (mgr *RpcManager) onRequest(conn *rpcConn, msg *InnerMessage) {
	err := mgr.pool.Submit(func() {
		mgr.handleRequest(conn, msg)
	})
	if err != nil {
		conn.sendError(msg.Head.CallId, fmt.Errorf("%w: %v", ErrRpcClosed, err))
	}
}

func (mgr *RpcManager) handleRequest(conn *rpcConn, msg *InnerMessage) {
	msgId := msg.Head.MsgID
	info := getMsgInfo(msgId)
	if info == nil {
		conn.sendError(msg.Head.CallId, fmt.Errorf("%w: msg id %v", ErrRpcMsgNotRegistered, msgId))
		return
	}
	method, ok := mgr.getMsgHandlerFunc(msgId)
	if !ok {
		conn.sendError(msg.Head.CallId, fmt.Errorf("%w: %v", ErrRpcHandlerNotFound, info.name))
		return
	}

	req := reflect.New(info.reqType)
	if err := msgpack.Unmarshal(msg.Body, req.Interface()); err != nil {
		conn.sendError(msg.Head.CallId, fmt.Errorf("unmarshal %v: %w", info.name, err))
		return
	}
	resp := reflect.New(info.respType)

	ctx := createContext(mgr.ctx, conn.remoteAddr)
	if err := callHandler(method, ctx, req, resp); err != nil {
		conn.sendError(msg.Head.CallId, err)
		return
	}
	conn.sendResponse(msg.Head.CallId, resp.Interface())
}

func callHandler(method reflect.Value, ctx Context, req reflect.Value, resp reflect.Value) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("rpc handler panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("rpc handler panic: %v", r)
		}
	}()
	out := method.Call([]reflect.Value{reflect.ValueOf(ctx), req, resp})
	if out[0].IsNil() {
		return nil
	}
	return out[0].Interface().(error)
}

// RemoveEndpoint 关闭到endpoint的连接
func (mgr *RpcManager) RemoveEndpoint(endpoint string) bool {
	return mgr.stubMgr.delStub(endpoint)
}

func (mgr *RpcManager) Close() error {
	mgr.lock.Lock()
	if !mgr.closed.CompareAndSwap(false, true) {
		mgr.lock.Unlock()
		return nil
	}
	var err error
	if mgr.listener != nil {
		err = mgr.listener.Close()
	}
	mgr.lock.Unlock()

	mgr.cancel()
	mgr.stubMgr.closeAll()
	mgr.inbound.Range(func(sessionId int64, conn *rpcConn) bool {
		conn.close()
		return true
	})
	mgr.wg.Wait()

	if mgr.ownPool {
		mgr.pool.Shutdown()
	}
	log.Info("rpc manager closed")
	return err
}
