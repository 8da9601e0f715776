package actor

import (
	"bytes"
	"context"
	"runtime"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"

	"goactor/framework/log"
)

// actorCell 运行时对象, 持有用户actor和它的mailbox
type actorCell struct {
	system  *ActorSystem
	self    *ActorRef
	actor   Actor
	mailbox *MailBox[*envelope]
	ctx     *actorContext

	mu       sync.Mutex
	state    ActorState
	looping  bool // 已有receive loop在运行
	stopping bool
	cancel   context.CancelFunc
	loopDone chan struct{}
	stopped  chan struct{}

	stopRequested atomic.Bool
	// 正在执行Receive的协程id, 0表示没有
	invoker atomic.Int64
}

func newActorCell(system *ActorSystem, self *ActorRef, actor Actor) *actorCell {
	c := &actorCell{
		system:  system,
		self:    self,
		actor:   actor,
		mailbox: NewMailBox[*envelope](),
		state:   Created,
		stopped: make(chan struct{}),
	}
	c.ctx = newActorContext(c)
	return c
}

func (c *actorCell) getState() ActorState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *actorCell) enqueue(env *envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Stopped {
		return notFound(c.self.name)
	}
	c.mailbox.Enqueue(env)
	c.system.metrics.enqueued.Inc()

	// stop期间新消息由stop的drain处理
	if !c.looping && !c.stopping {
		c.start()
	}
	return nil
}

// 需要持有c.mu
func (c *actorCell) start() {
	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	err := c.system.startActorLoop(func() {
		c.receiveLoop(loopCtx, done)
	})
	if err != nil {
		cancel()
		log.Error("actor %s start receive loop error: %v", c.self.name, err)
		return
	}

	c.looping = true
	c.state = Running
	c.cancel = cancel
	c.loopDone = done
}

func (c *actorCell) receiveLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	gid := goroutineID()
	for {
		env, err := c.mailbox.Dequeue(ctx)
		if err != nil {
			return
		}
		c.invoke(env, gid)

		if c.stopRequested.Load() {
			c.stopFromLoop()
			return
		}
	}
}

func (c *actorCell) invoke(env *envelope, gid int64) {
	c.invoker.Store(gid)
	c.setSender(env.sender)
	c.ctx.msg = env.message
	defer func() {
		c.ctx.msg = nil
		c.setSender(nil)
		c.invoker.Store(0)
		if r := recover(); r != nil {
			c.system.metrics.handlerErrors.Inc()
			log.Error("actor %s panic on %T: %v\n%s", c.self.name, env.message, r, debug.Stack())
		}
	}()

	err := c.actor.Receive(c.ctx)
	c.system.metrics.processed.Inc()
	if err != nil {
		c.system.metrics.handlerErrors.Inc()
		log.Warn("actor %s receive %T error: %v", c.self.name, env.message, err)
	}
}

func (c *actorCell) setSender(sender *ActorRef) {
	c.ctx.sender = sender
}

func (c *actorCell) requestStop() {
	c.stopRequested.Store(true)
}

// stop 停止接收循环, 在调用者协程上处理完mailbox里剩余的消息.
// 在本actor的Receive中调用时等同于Context.Stop, 当前消息处理完后由receive loop停止.
func (c *actorCell) stop() {
	if c.inOwnReceive() {
		c.requestStop()
		return
	}

	c.mu.Lock()
	if c.stopping || c.state == Stopped {
		c.mu.Unlock()
		<-c.stopped
		return
	}
	c.stopping = true
	c.looping = false
	cancel, done := c.cancel, c.loopDone
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	c.drain()
}

// receive loop中处理Context.Stop
func (c *actorCell) stopFromLoop() {
	c.mu.Lock()
	if c.stopping {
		// 外部stop在等待loop退出, 由它来drain
		c.mu.Unlock()
		return
	}
	c.stopping = true
	c.looping = false
	cancel := c.cancel
	c.mu.Unlock()

	cancel()
	c.drain()
	c.system.removeStopped(c)
}

func (c *actorCell) drain() {
	gid := goroutineID()
	for {
		c.mu.Lock()
		env, ok := c.mailbox.TryDequeue()
		if !ok {
			// 在锁内确认队列为空后再置为Stopped, 之后的enqueue都会失败
			c.state = Stopped
			c.mu.Unlock()
			break
		}
		c.mu.Unlock()
		c.invoke(env, gid)
	}

	if hook, ok := c.actor.(PostStopper); ok {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error("actor %s PostStop panic: %v", c.self.name, r)
				}
			}()
			hook.PostStop(c.ctx)
		}()
	}
	close(c.stopped)
}

func (c *actorCell) inOwnReceive() bool {
	gid := c.invoker.Load()
	return gid != 0 && gid == goroutineID()
}

// 从"goroutine 123 [running]:"中解析协程id
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	field := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(field, ' '); i > 0 {
		field = field[:i]
	}
	id, _ := strconv.ParseInt(string(field), 10, 64)
	return id
}
