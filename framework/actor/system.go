package actor

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"goactor/framework/log"
	"goactor/utility/safemap"
	"goactor/utility/workpool"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// actor系统, 维护本地actor和已知的远程actor
type ActorSystem struct {
	name      string
	host      string
	mode      SystemMode
	transport Transport

	pool    *workpool.Pool
	ownPool bool

	locals  *safemap.ConcurrentMap[string, *actorCell]
	remotes *safemap.ConcurrentMap[string, *ActorRef]

	metrics *systemMetrics
	stopped atomic.Bool
}

func NewActorSystem(options ...Option) *ActorSystem {
	ops := LoadOptions(options...)
	sys := &ActorSystem{
		name:      ops.name,
		host:      ops.host,
		mode:      DEFAULT,
		transport: ops.transport,
		pool:      ops.pool,
	}
	if sys.transport != nil {
		sys.mode = CLUSTER
	}
	if sys.pool == nil {
		sys.pool = workpool.NewPool(workpool.WithPanicHandler(func(r any) {
			log.Error("actor system %s worker panic: %v", ops.name, r)
		}))
		sys.ownPool = true
	}
	sys.locals = safemap.NewConcurrentMap[string, *actorCell](ops.shardNum, safemap.StringHash)
	sys.remotes = safemap.NewConcurrentMap[string, *ActorRef](ops.shardNum, safemap.StringHash)
	sys.metrics = newSystemMetrics(ops.name, ops.registerer)
	return sys
}

func (system *ActorSystem) Name() string {
	return system.name
}

func (system *ActorSystem) Host() string {
	return system.host
}

func (system *ActorSystem) Mode() SystemMode {
	return system.mode
}

// ActorOf 创建kind类型的actor, name为空时自动生成唯一名字
func (system *ActorSystem) ActorOf(ctx context.Context, kind string, mode ActorMode, name string) (*ActorRef, error) {
	a, err := newActor(kind)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = system.genName(mode)
	}
	return system.register(ctx, name, a)
}

func (system *ActorSystem) Spawn(ctx context.Context, a Actor) (*ActorRef, error) {
	return system.SpawnNamed(ctx, "", a)
}

// SpawnNamed 注册一个已经构造好的actor实例
func (system *ActorSystem) SpawnNamed(ctx context.Context, name string, a Actor) (*ActorRef, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: %w: nil actor", ErrActorNotFound, ErrConstruction)
	}
	if name == "" {
		name = system.genName(LOCAL)
	}
	return system.register(ctx, name, a)
}

func (system *ActorSystem) genName(mode ActorMode) string {
	id := uuid.NewString()
	if mode == REMOTE || system.mode == CLUSTER {
		return system.host + "/" + id
	}
	return id
}

func (system *ActorSystem) register(ctx context.Context, name string, a Actor) (*ActorRef, error) {
	if system.stopped.Load() {
		return nil, ErrSystemStopped
	}
	if system.ContainsRemote(name) {
		return nil, fmt.Errorf("%w: %s is a remote actor", ErrActorExists, name)
	}

	ref := newActorRef(system, name)
	cell := newActorCell(system, ref, a)

	// 发布之前回调, 保证和Receive不并发
	if hook, ok := a.(PreStarter); ok {
		if err := callPreStart(hook, cell.ctx); err != nil {
			return nil, err
		}
	}

	if !system.locals.SetIfAbsent(name, cell) {
		return nil, fmt.Errorf("%w: %s", ErrActorExists, name)
	}
	if system.stopped.Load() {
		system.locals.Del(name)
		return nil, ErrSystemStopped
	}

	if system.mode == CLUSTER {
		if err := system.transport.Bind(ctx, name); err != nil {
			system.locals.Del(name)
			return nil, fmt.Errorf("bind actor %s: %w", name, err)
		}
	}

	system.metrics.alive.Inc()
	log.Debug("actor %s created in system %s", name, system.name)
	return ref, nil
}

func callPreStart(hook PreStarter, ctx Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %w: PreStart panic: %v", ErrActorNotFound, ErrConstruction, r)
		}
	}()
	hook.PreStart(ctx)
	return nil
}

// Stop 停止本地actor, 返回前mailbox中的消息都已处理完.
// actor在自己的Receive中Stop自身时, 剩余消息在当前消息处理完后由receive loop处理.
func (system *ActorSystem) Stop(ctx context.Context, ref *ActorRef) error {
	if ref == nil {
		return notFound("<nil>")
	}
	cell, ok := system.locals.Get(ref.name)
	if !ok {
		return notFound(ref.name)
	}
	cell.stop()
	return system.removeCell(ctx, cell)
}

func (system *ActorSystem) removeStopped(cell *actorCell) {
	if err := system.removeCell(context.Background(), cell); err != nil {
		log.Warn("actor %s remove after self stop: %v", cell.self.name, err)
	}
}

func (system *ActorSystem) removeCell(ctx context.Context, cell *actorCell) error {
	current, ok := system.locals.Get(cell.self.name)
	if !ok || current != cell {
		return nil
	}
	system.locals.Del(cell.self.name)
	system.metrics.alive.Dec()

	if system.mode == CLUSTER {
		if err := system.transport.Unbind(ctx, cell.self.name); err != nil {
			return fmt.Errorf("unbind actor %s: %w", cell.self.name, err)
		}
	}
	return nil
}

// Shutdown 停止所有本地actor并关闭协程池, 之后无法再创建actor
func (system *ActorSystem) Shutdown(ctx context.Context) error {
	if !system.stopped.CompareAndSwap(false, true) {
		return nil
	}

	var errs error
	system.locals.Range(func(name string, cell *actorCell) bool {
		cell.stop()
		errs = multierr.Append(errs, system.removeCell(ctx, cell))
		return true
	})

	if system.ownPool {
		system.pool.Shutdown()
	}
	log.Info("actor system %s shutdown", system.name)
	return errs
}

func (system *ActorSystem) IsStopped() bool {
	return system.stopped.Load()
}

func (system *ActorSystem) startActorLoop(loop func()) error {
	return system.pool.Submit(loop)
}

func (system *ActorSystem) route(ctx context.Context, sender *ActorRef, to string, message any) error {
	if cell, ok := system.locals.Get(to); ok {
		return cell.enqueue(&envelope{message: message, sender: sender})
	}

	if _, ok := system.remotes.Get(to); ok {
		if system.transport == nil {
			return fmt.Errorf("%w: no transport for %s", ErrRemoteUnavailable, to)
		}
		system.metrics.remoteForwards.Inc()
		from := ""
		if sender != nil {
			from = sender.name
		}
		return system.transport.Forward(ctx, from, to, message)
	}

	return notFound(to)
}

// Deliver 远程节点转发过来的消息, 按本地规则继续投递
func (system *ActorSystem) Deliver(ctx context.Context, from string, to string, message any) error {
	var sender *ActorRef
	if from != "" {
		sender = newActorRef(system, from)
	}
	return system.route(ctx, sender, to, message)
}

func (system *ActorSystem) Contains(ref *ActorRef) bool {
	if ref == nil {
		return false
	}
	_, ok := system.locals.Get(ref.name)
	return ok
}

func (system *ActorSystem) ContainsRemote(name string) bool {
	_, ok := system.remotes.Get(name)
	return ok
}

// GetActor 返回本地actor实例
func (system *ActorSystem) GetActor(ref *ActorRef) (Actor, error) {
	if ref == nil {
		return nil, notFound("<nil>")
	}
	cell, ok := system.locals.Get(ref.name)
	if !ok {
		return nil, notFound(ref.name)
	}
	return cell.actor, nil
}

func (system *ActorSystem) State(ref *ActorRef) (ActorState, error) {
	if ref == nil {
		return Stopped, notFound("<nil>")
	}
	cell, ok := system.locals.Get(ref.name)
	if !ok {
		return Stopped, notFound(ref.name)
	}
	return cell.getState(), nil
}

// AddRemoteRef 记录其他节点上的actor
func (system *ActorSystem) AddRemoteRef(name string) (*ActorRef, error) {
	if _, ok := system.locals.Get(name); ok {
		return nil, fmt.Errorf("%w: %s is a local actor", ErrActorExists, name)
	}
	ref := newActorRef(system, name)
	if !system.remotes.SetIfAbsent(name, ref) {
		ref, _ = system.remotes.Get(name)
	}
	return ref, nil
}

func (system *ActorSystem) RemoveRemoteRef(name string) {
	system.remotes.Del(name)
}

// ActorSelection 按名字查找本地或已知的远程actor, 找不到返回nil
func (system *ActorSystem) ActorSelection(name string) *ActorRef {
	if cell, ok := system.locals.Get(name); ok {
		return cell.self
	}
	if ref, ok := system.remotes.Get(name); ok {
		return ref
	}
	return nil
}

func (system *ActorSystem) LocalRefs() []string {
	names := system.locals.Keys()
	sort.Strings(names)
	return names
}

func (system *ActorSystem) RemoteRefs() []string {
	names := system.remotes.Keys()
	sort.Strings(names)
	return names
}
