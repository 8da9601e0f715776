package cluster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"goactor/framework/actor"
	"goactor/framework/log"
	"goactor/framework/registry"
	"goactor/framework/remote"
	"goactor/utility/consistent"
	"goactor/utility/random"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"go.uber.org/multierr"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoSuchMember   = errors.New("no such cluster member")
	ErrClusterStopped = errors.New("cluster stopped")
)

// 成员状态
const (
	StateJoining = "joining"
	StateMember  = "member"

	EventJoined = "joined"
)

const MasterId = "master"

// Cluster 集群成员: 没有选主, 没有故障检测, 成员只增不减
type Cluster struct {
	ops    *Options
	id     string
	host   string
	seed   string
	system *actor.ActorSystem
	remote *remote.Remote
	fsm    *fsm.FSM

	lock    sync.RWMutex
	members map[string]struct{}
	ring    *consistent.Ring

	stopped  atomic.Bool
	done     chan struct{}
	doneOnce sync.Once
}

// MemberId 种子节点为 host/master, 其他为 host/uuid
func MemberId(host string, seed string) string {
	if host == seed {
		return host + "/" + MasterId
	}
	return host + "/" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Join 创建集群成员: 绑定自身id, 非种子节点向种子节点申请加入
// system需要使用r作为Transport
func Join(ctx context.Context, system *actor.ActorSystem, r *remote.Remote, options ...Option) (*Cluster, error) {
	ops := LoadOptions(options...)
	c := &Cluster{
		ops:     ops,
		host:    system.Host(),
		seed:    ops.seed,
		system:  system,
		remote:  r,
		members: map[string]struct{}{},
		ring:    consistent.NewRing(ops.ringReplicas),
		done:    make(chan struct{}),
	}
	if c.seed == "" {
		c.seed = c.host
	}
	c.id = MemberId(c.host, c.seed)
	c.fsm = fsm.NewFSM(
		StateJoining,
		fsm.Events{
			{Name: EventJoined, Src: []string{StateJoining}, Dst: StateMember},
		},
		fsm.Callbacks{
			"enter_" + StateMember: func(_ context.Context, e *fsm.Event) {
				log.Info("cluster member %v joined, seed: %v, members: %v", c.id, c.seed, c.Members())
			},
		},
	)

	r.AddMsgHandler(&clusterHandler{cluster: c})
	if err := r.Bind(ctx, c.id); err != nil {
		return nil, fmt.Errorf("bind member %s: %w", c.id, err)
	}
	c.join(c.id)

	if !c.IsSeed() {
		members, err := c.joinSeed(ctx)
		if err != nil {
			_ = r.Unbind(ctx, c.id)
			return nil, err
		}
		for _, member := range members {
			c.join(member)
		}
	}

	if err := c.fsm.Event(ctx, EventJoined); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cluster) joinSeed(ctx context.Context) ([]string, error) {
	seedId := c.seed + "/" + MasterId
	var lastErr error
	for i := 0; i < c.ops.joinRetry; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(random.Jitter(c.ops.joinInterval, 0.2)):
			}
		}

		resp := &JoinResp{}
		err := c.call(ctx, seedId, &JoinReq{Name: c.id}, resp)
		if err == nil {
			return resp.Members, nil
		}
		lastErr = err
		if !errors.Is(err, registry.ErrNotBound) && !errors.Is(err, actor.ErrRemoteUnavailable) {
			break
		}
		log.Warn("cluster join seed %v failed, retry: %v, error: %v", seedId, i+1, err)
	}
	return nil, fmt.Errorf("join seed %s: %w", seedId, lastErr)
}

func (c *Cluster) Id() string {
	return c.id
}

func (c *Cluster) Host() string {
	return c.host
}

func (c *Cluster) Seed() string {
	return c.seed
}

func (c *Cluster) IsSeed() bool {
	return c.host == c.seed
}

func (c *Cluster) State() string {
	return c.fsm.Current()
}

func (c *Cluster) System() *actor.ActorSystem {
	return c.system
}

// Done 本节点的actor系统停止后关闭
func (c *Cluster) Done() <-chan struct{} {
	return c.done
}

// 加入成员集合, 重复加入无影响
func (c *Cluster) join(name string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	if _, ok := c.members[name]; ok {
		return false
	}
	c.members[name] = struct{}{}
	c.ring.Add(name)
	log.Info("cluster %v add member %v", c.id, name)
	return true
}

func (c *Cluster) Members() []string {
	c.lock.RLock()
	members := maps.Keys(c.members)
	c.lock.RUnlock()
	slices.Sort(members)
	return members
}

func (c *Cluster) others() []string {
	members := c.Members()
	others := make([]string, 0, len(members))
	for _, member := range members {
		if member != c.id {
			others = append(others, member)
		}
	}
	return others
}

func (c *Cluster) memberByHost(host string) (string, bool) {
	for _, member := range c.Members() {
		if actor.HostOf(member) == host {
			return member, true
		}
	}
	return "", false
}

// 调用成员节点的rpc
func (c *Cluster) call(ctx context.Context, member string, req any, resp any) error {
	endpoint, err := c.remote.Resolve(ctx, member)
	if err != nil {
		if errors.Is(err, registry.ErrNotBound) {
			return fmt.Errorf("%w: %s: %w", ErrNoSuchMember, member, err)
		}
		return fmt.Errorf("%w: %w", actor.ErrRemoteUnavailable, err)
	}
	return c.remote.Call(ctx, endpoint, req, resp)
}

// 并发调用所有目标, 汇总错误
func (c *Cluster) broadcast(ctx context.Context, targets []string, send func(ctx context.Context, member string) error) error {
	var (
		mu   sync.Mutex
		errs error
	)
	g := errgroup.Group{}
	g.SetLimit(c.ops.broadcastSize)
	for _, target := range targets {
		member := target
		g.Go(func() error {
			if err := send(ctx, member); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("member %s: %w", member, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

// ActorOf LOCAL在本节点创建并广播给其他成员; REMOTE按名字前缀(或一致性哈希)选择节点创建
func (c *Cluster) ActorOf(ctx context.Context, kind string, mode actor.ActorMode, name string) (*actor.ActorRef, error) {
	if c.stopped.Load() {
		return nil, ErrClusterStopped
	}
	if mode == actor.LOCAL {
		return c.actorOfLocal(ctx, kind, name)
	}

	if name == "" {
		id := uuid.NewString()
		c.lock.RLock()
		owner := c.ring.Get(id)
		c.lock.RUnlock()
		name = actor.HostOf(owner) + "/" + id
	}
	ownerHost := actor.HostOf(name)
	if ownerHost == c.host {
		return c.actorOfLocal(ctx, kind, name)
	}
	owner, ok := c.memberByHost(ownerHost)
	if !ok {
		return nil, fmt.Errorf("%w: host %s", ErrNoSuchMember, ownerHost)
	}

	resp := &ActorOfResp{}
	if err := c.call(ctx, owner, &ActorOfReq{Kind: kind, Name: name}, resp); err != nil {
		return nil, err
	}
	return c.system.AddRemoteRef(resp.Name)
}

func (c *Cluster) actorOfLocal(ctx context.Context, kind string, name string) (*actor.ActorRef, error) {
	ref, err := c.system.ActorOf(ctx, kind, actor.LOCAL, name)
	if err != nil {
		return nil, err
	}
	err = c.broadcast(ctx, c.others(), func(ctx context.Context, member string) error {
		return c.call(ctx, member, &AddRemoteRefReq{Names: []string{ref.Name()}}, &AddRemoteRefResp{})
	})
	if err != nil {
		log.Warn("cluster broadcast actor %v error: %v", ref.Name(), err)
	}
	return ref, nil
}

// ActorSelection 按名字查找集群内已存在的actor, 未绑定时返回nil
func (c *Cluster) ActorSelection(ctx context.Context, address string) *actor.ActorRef {
	if ref := c.system.ActorSelection(address); ref != nil {
		return ref
	}
	if _, err := c.remote.Resolve(ctx, address); err != nil {
		if !errors.Is(err, registry.ErrNotBound) {
			log.Warn("cluster actor selection %v error: %v", address, err)
		}
		return nil
	}
	ref, err := c.system.AddRemoteRef(address)
	if err != nil {
		return c.system.ActorSelection(address)
	}
	return ref
}

// UpdateRemoteActors 把本节点已知的所有actor推送给新成员
func (c *Cluster) UpdateRemoteActors(ctx context.Context, newMember string) error {
	names := append(c.system.LocalRefs(), c.system.RemoteRefs()...)
	if len(names) == 0 {
		return nil
	}
	return c.call(ctx, newMember, &UpdateRemoteActorsReq{Names: names}, &UpdateRemoteActorsResp{})
}

func (c *Cluster) addRemoteRefs(names []string) {
	for _, name := range names {
		if c.system.ActorSelection(name) != nil {
			continue
		}
		if _, err := c.system.AddRemoteRef(name); err != nil {
			log.Debug("cluster %v add remote ref %v: %v", c.id, name, err)
		}
	}
}

// Stop 停止actor, 不在本节点时转给名字前缀对应的成员
func (c *Cluster) Stop(ctx context.Context, ref *actor.ActorRef) error {
	if ref == nil {
		return fmt.Errorf("%w: <nil>", actor.ErrActorNotFound)
	}
	if c.system.Contains(ref) {
		if err := c.system.Stop(ctx, ref); err != nil {
			return err
		}
		err := c.broadcast(ctx, c.others(), func(ctx context.Context, member string) error {
			return c.call(ctx, member, &RemoveRemoteRefReq{Names: []string{ref.Name()}}, &RemoveRemoteRefResp{})
		})
		if err != nil {
			log.Warn("cluster broadcast stop actor %v error: %v", ref.Name(), err)
		}
		return nil
	}

	owner, ok := c.memberByHost(ref.Host())
	if !ok || owner == c.id {
		return fmt.Errorf("%w: %s", actor.ErrActorNotFound, ref.Name())
	}
	if err := c.call(ctx, owner, &StopActorReq{Name: ref.Name()}, &StopActorResp{}); err != nil {
		return err
	}
	c.system.RemoveRemoteRef(ref.Name())
	return nil
}

// Shutdown 通知所有成员停止actor系统, 最后停止自身
func (c *Cluster) Shutdown(ctx context.Context) error {
	if c.stopped.Load() {
		return nil
	}
	errs := c.broadcast(ctx, c.others(), func(ctx context.Context, member string) error {
		return c.call(ctx, member, &StopSystemReq{From: c.id}, &StopSystemResp{})
	})
	return multierr.Append(errs, c.stopLocal(ctx))
}

// Close 只停止本节点, 其他成员不受影响
func (c *Cluster) Close(ctx context.Context) error {
	return c.stopLocal(ctx)
}

func (c *Cluster) stopLocal(ctx context.Context) error {
	if !c.stopped.CompareAndSwap(false, true) {
		return nil
	}
	defer c.doneOnce.Do(func() { close(c.done) })

	errs := c.system.Shutdown(ctx)
	errs = multierr.Append(errs, c.remote.Unbind(ctx, c.id))
	log.Info("cluster member %v stopped", c.id)
	return errs
}
