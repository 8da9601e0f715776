package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"goactor/framework/actor"
	"goactor/framework/log"
	"goactor/framework/registry"
	"goactor/framework/rpc"
	"goactor/utility/lru"
)

var ErrRemoteNotStarted = errors.New("remote not started")

// Remote 实现actor.Transport: 名字绑定走registry, 消息投递走rpc
type Remote struct {
	ops      *Options
	reg      registry.Registry
	rpcMgr   *rpc.RpcManager
	system   atomic.Pointer[actor.ActorSystem]
	endpoint string

	// name -> endpoint
	cache *lru.LRU[string, string]

	lock        sync.Mutex
	started     bool
	watchCancel context.CancelFunc
	watchDone   chan struct{}
}

func NewRemote(reg registry.Registry, options ...Option) *Remote {
	ops := LoadOptions(options...)
	r := &Remote{
		ops:   ops,
		reg:   reg,
		cache: lru.NewLRU[string, string](ops.cacheSize),
	}
	rpcOptions := append([]rpc.ManagerOption{
		rpc.WithCallTimeout(ops.callTimeout),
		rpc.WithDialTimeout(ops.dialTimeout),
	}, ops.rpcOptions...)
	r.rpcMgr = rpc.NewRpcManager(&remoteHandler{remote: r}, rpcOptions...)
	return r
}

// Start 开始监听, 并订阅名字服务的变化
func (r *Remote) Start(ctx context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.started {
		return nil
	}

	if err := r.rpcMgr.TcpListen(ctx, r.ops.listen); err != nil {
		return fmt.Errorf("remote listen %s: %w", r.ops.listen, err)
	}
	r.endpoint = r.ops.advertise
	if r.endpoint == "" {
		r.endpoint = r.rpcMgr.Addr()
	}

	if watcher, ok := r.reg.(registry.Watcher); ok {
		watchCtx, cancel := context.WithCancel(context.Background())
		events, err := watcher.Watch(watchCtx, "")
		if err != nil {
			cancel()
			log.Warn("remote watch registry error: %v", err)
		} else {
			r.watchCancel = cancel
			r.watchDone = make(chan struct{})
			go r.watchLoop(events)
		}
	}

	r.started = true
	log.Info("remote started, endpoint: %v", r.endpoint)
	return nil
}

// Attach 绑定处理远程消息的actor系统
func (r *Remote) Attach(system *actor.ActorSystem) {
	r.system.Store(system)
}

func (r *Remote) Endpoint() string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.endpoint
}

func (r *Remote) Registry() registry.Registry {
	return r.reg
}

// AddMsgHandler 在同一个rpc端口上注册更多的处理器
func (r *Remote) AddMsgHandler(handler any) {
	r.rpcMgr.AddMsgHandler(handler)
}

func (r *Remote) watchLoop(events <-chan registry.WatchEvent) {
	defer close(r.watchDone)
	for event := range events {
		if event.Err != nil {
			log.Warn("remote watch event error: %v", event.Err)
			continue
		}
		switch event.EventType {
		case registry.WatchEventTypeUpdate:
			r.cache.Set(event.Name, event.Endpoint)
		case registry.WatchEventTypeDelete:
			r.cache.Del(event.Name)
		}
	}
}

func (r *Remote) Bind(ctx context.Context, name string) error {
	endpoint := r.Endpoint()
	if endpoint == "" {
		return ErrRemoteNotStarted
	}
	if err := r.reg.Bind(ctx, name, endpoint); err != nil {
		if errors.Is(err, registry.ErrAlreadyBound) {
			return fmt.Errorf("%w: %w", actor.ErrActorExists, err)
		}
		return err
	}
	r.cache.Set(name, endpoint)
	return nil
}

func (r *Remote) Unbind(ctx context.Context, name string) error {
	r.cache.Del(name)
	return r.reg.Unbind(ctx, name)
}

// Resolve 查询名字对应的endpoint, 未绑定时返回ErrNotBound
func (r *Remote) Resolve(ctx context.Context, name string) (string, error) {
	if endpoint, ok := r.cache.Get(name); ok {
		return endpoint, nil
	}
	endpoint, err := r.reg.Lookup(ctx, name)
	if err != nil {
		return "", err
	}
	r.cache.Set(name, endpoint)
	return endpoint, nil
}

func (r *Remote) Forward(ctx context.Context, from string, to string, msg any) error {
	payload, err := rpc.EncodePayload(msg)
	if err != nil {
		return fmt.Errorf("%w: %w", actor.ErrUnsupportedMessage, err)
	}

	endpoint, err := r.Resolve(ctx, to)
	if err != nil {
		if errors.Is(err, registry.ErrNotBound) {
			return fmt.Errorf("%w: %s: %w", actor.ErrActorNotFound, to, err)
		}
		return fmt.Errorf("%w: lookup %s: %w", actor.ErrRemoteUnavailable, to, err)
	}

	req := &ForwardReq{From: from, To: to, Payload: payload}
	err = r.Call(ctx, endpoint, req, &ForwardResp{})
	if err != nil && (errors.Is(err, actor.ErrRemoteUnavailable) || errors.Is(err, actor.ErrActorNotFound)) {
		r.cache.Del(to)
	}
	return err
}

// Call 向endpoint发起rpc, 网络错误转换为ErrRemoteUnavailable
func (r *Remote) Call(ctx context.Context, endpoint string, req any, resp any) error {
	err := r.rpcMgr.Call(ctx, endpoint, req, resp)
	if err == nil {
		return nil
	}
	var remoteErr *rpc.RemoteError
	if errors.As(err, &remoteErr) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", actor.ErrRemoteUnavailable, endpoint, err)
}

func (r *Remote) Close() error {
	r.lock.Lock()
	cancel, done := r.watchCancel, r.watchDone
	r.watchCancel = nil
	r.lock.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return r.rpcMgr.Close()
}
