package actor

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// 测试用的actor

type TrivialMessage struct{}

type TrivialActor struct{}

func (*TrivialActor) Receive(ctx Context) error {
	return nil
}

type StoreMessage struct {
	Data string
}

type StoreActor struct {
	lock sync.Mutex
	data string
}

func (a *StoreActor) Receive(ctx Context) error {
	switch msg := ctx.Message().(type) {
	case *StoreMessage:
		a.lock.Lock()
		a.data = msg.Data
		a.lock.Unlock()
		return nil
	}
	return UnsupportedMessage(ctx.Message())
}

func (a *StoreActor) Data() string {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.data
}

type PingMessage struct{}
type PongMessage struct{}

type PingPongActor struct {
	last atomic.Value
}

func (a *PingPongActor) Receive(ctx Context) error {
	switch ctx.Message().(type) {
	case *PingMessage:
		a.last.Store("Ping")
		return ctx.Reply(&PongMessage{})
	case *PongMessage:
		a.last.Store("Pong")
		return nil
	}
	return UnsupportedMessage(ctx.Message())
}

func (a *PingPongActor) Last() string {
	v, _ := a.last.Load().(string)
	return v
}

type Increment struct{}
type Decrement struct{}

type CounterActor struct {
	counter atomic.Int64
}

func (a *CounterActor) Receive(ctx Context) error {
	switch ctx.Message().(type) {
	case *Increment:
		a.counter.Add(1)
	case *Decrement:
		a.counter.Add(-1)
	default:
		return UnsupportedMessage(ctx.Message())
	}
	return nil
}

type LongTaskActor struct {
	lock  sync.Mutex
	count int
	task  string
}

func (a *LongTaskActor) Receive(ctx Context) error {
	if _, ok := ctx.Message().(*TrivialMessage); !ok {
		return UnsupportedMessage(ctx.Message())
	}
	time.Sleep(50 * time.Millisecond)
	a.lock.Lock()
	a.count++
	a.task = fmt.Sprintf("Done %d times", a.count)
	a.lock.Unlock()
	return nil
}

func (a *LongTaskActor) Task() string {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.task
}

type BounceMessage struct {
	Statement string
}

type ResponseMessage struct {
	Response string
}

type BouncerActor struct {
	lock sync.Mutex
	last string
}

func (a *BouncerActor) Receive(ctx Context) error {
	switch msg := ctx.Message().(type) {
	case *BounceMessage:
		a.setLast(msg.Statement)
		switch strings.ToLower(msg.Statement) {
		case "hi":
			return ctx.Reply(&ResponseMessage{"Hello"})
		case "how are you?":
			return ctx.Reply(&ResponseMessage{"Fine."})
		default:
			return ctx.Reply(&ResponseMessage{"42"})
		}
	case *ResponseMessage:
		a.setLast(msg.Response)
		return nil
	}
	return UnsupportedMessage(ctx.Message())
}

func (a *BouncerActor) setLast(s string) {
	a.lock.Lock()
	a.last = s
	a.lock.Unlock()
}

func (a *BouncerActor) Last() string {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.last
}

// 记录收到消息的发送者
type RecorderActor struct {
	lock    sync.Mutex
	senders []string
	msgs    []any
}

func (a *RecorderActor) Receive(ctx Context) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	sender := ""
	if ctx.Sender() != nil {
		sender = ctx.Sender().Name()
	}
	a.senders = append(a.senders, sender)
	a.msgs = append(a.msgs, ctx.Message())
	return nil
}

func (a *RecorderActor) Senders() []string {
	a.lock.Lock()
	defer a.lock.Unlock()
	return append([]string(nil), a.senders...)
}

func (a *RecorderActor) Messages() []any {
	a.lock.Lock()
	defer a.lock.Unlock()
	return append([]any(nil), a.msgs...)
}

// 把收到的消息转给target, 保留原始发送者
type RelayActor struct {
	target *ActorRef
}

func (a *RelayActor) Receive(ctx Context) error {
	return ctx.Forward(a.target)
}

const (
	kindTrivial  = "trivial"
	kindStore    = "store"
	kindPingPong = "pingpong"
	kindCounter  = "counter"
	kindLongTask = "longtask"
	kindBouncer  = "bouncer"
	kindRecorder = "recorder"
	kindNil      = "nil"
	kindPanic    = "panic"
)

func init() {
	RegisterActor(kindTrivial, func() Actor { return &TrivialActor{} })
	RegisterActor(kindStore, func() Actor { return &StoreActor{} })
	RegisterActor(kindPingPong, func() Actor { return &PingPongActor{} })
	RegisterActor(kindCounter, func() Actor { return &CounterActor{} })
	RegisterActor(kindLongTask, func() Actor { return &LongTaskActor{} })
	RegisterActor(kindBouncer, func() Actor { return &BouncerActor{} })
	RegisterActor(kindRecorder, func() Actor { return &RecorderActor{} })
	RegisterActor(kindNil, func() Actor { return nil })
	RegisterActor(kindPanic, func() Actor { panic("cannot build") })
}
