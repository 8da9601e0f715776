package rpc

import (
	"bufio"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"goactor/framework/log"
	"goactor/framework/network"

	"github.com/vmihailenco/msgpack/v5"
)

var nextSessionId = int64(0)

// 一条tcp连接, 请求和返回都在同一条连接上
type rpcConn struct {
	mgr        *RpcManager
	sessionId  int64
	conn       net.Conn
	remoteAddr string
	reader     *bufio.Reader

	writeMu sync.Mutex
	writer  *bufio.Writer

	closed    atomic.Bool
	closeOnce sync.Once

	pendingMu sync.Mutex
	pending   map[int64]*RpcEntry
}

func newRpcConn(mgr *RpcManager, conn net.Conn) *rpcConn {
	return &rpcConn{
		mgr:        mgr,
		sessionId:  atomic.AddInt64(&nextSessionId, 1),
		conn:       conn,
		remoteAddr: conn.RemoteAddr().String(),
		reader:     bufio.NewReader(conn),
		writer:     bufio.NewWriter(conn),
		pending:    map[int64]*RpcEntry{},
	}
}

func (c *rpcConn) readLoop() {
	defer c.mgr.wg.Done()
	defer c.close()

	for {
		frame, err := network.ReadFrame(c.reader)
		if err != nil {
			if !c.closed.Load() && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Warn("rpc read frame error, sessionId: %v, peer: %v, error: %v", c.sessionId, c.remoteAddr, err)
			}
			return
		}
		msg, err := decodeInnerMessage(frame)
		if err != nil {
			log.Error("rpc decode message error, sessionId: %v, peer: %v, error: %v", c.sessionId, c.remoteAddr, err)
			return
		}

		if msg.Head.MsgID == 0 {
			c.onResponse(msg)
		} else {
			c.mgr.onRequest(c, msg)
		}
	}
}

func (c *rpcConn) onResponse(msg *InnerMessage) {
	rpc := c.removePending(msg.Head.CallId)
	if rpc == nil {
		// 已经超时
		log.Debug("rpc response without pending call, callId: %v", msg.Head.CallId)
		return
	}
	rpc.RespChan <- rpcResult{msg: msg}
}

func (c *rpcConn) addPending(rpc *RpcEntry) error {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	if c.closed.Load() {
		return ErrRpcClosed
	}
	c.pending[rpc.CallId] = rpc
	return nil
}

func (c *rpcConn) removePending(callId int64) *RpcEntry {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	rpc, ok := c.pending[callId]
	if !ok {
		return nil
	}
	delete(c.pending, callId)
	return rpc
}

func (c *rpcConn) write(msg *InnerMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed.Load() {
		return ErrRpcClosed
	}
	if err := network.WriteFrame(c.writer, encodeInnerMessage(msg)); err != nil {
		if errors.Is(err, network.ErrFrameTooLarge) {
			return err
		}
		go c.close()
		return err
	}
	if err := c.writer.Flush(); err != nil {
		go c.close()
		return err
	}
	return nil
}

func (c *rpcConn) sendResponse(callId int64, resp any) {
	body, err := msgpack.Marshal(resp)
	if err != nil {
		c.sendError(callId, err)
		return
	}
	msg := &InnerMessage{Head: InnerMessageHead{CallId: callId}, Body: body}
	if err := c.write(msg); err != nil {
		log.Warn("rpc send response error, callId: %v, peer: %v, error: %v", callId, c.remoteAddr, err)
	}
}

func (c *rpcConn) sendError(callId int64, handlerErr error) {
	code, errBody := encodeError(handlerErr)
	body, err := msgpack.Marshal(errBody)
	if err != nil {
		log.Error("rpc marshal error body error: %v", err)
		return
	}
	msg := &InnerMessage{Head: InnerMessageHead{CallId: callId, ErrCode: code}, Body: body}
	if err := c.write(msg); err != nil {
		log.Warn("rpc send error response error, callId: %v, peer: %v, error: %v", callId, c.remoteAddr, err)
	}
}

// 关闭连接, 所有等待返回的调用收到ErrRpcClosed
func (c *rpcConn) close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		_ = c.conn.Close()

		c.pendingMu.Lock()
		pending := c.pending
		c.pending = map[int64]*RpcEntry{}
		c.pendingMu.Unlock()

		for _, rpc := range pending {
			rpc.RespChan <- rpcResult{err: ErrRpcClosed}
		}
		c.mgr.onConnClosed(c)
		log.Info("rpc connection closed, sessionId: %v, peer: %v", c.sessionId, c.remoteAddr)
	})
}
