package actor

import (
	"fmt"

	"goactor/utility/safemap"
)

// actor接口定义, 同一个actor的Receive不会并发调用
type Actor interface {
	Receive(ctx Context) error
}

type ActorFunc func(ctx Context) error

func (f ActorFunc) Receive(ctx Context) error {
	return f(ctx)
}

// 可选的生命周期回调
type PreStarter interface {
	PreStart(ctx Context)
}

type PostStopper interface {
	PostStop(ctx Context)
}

type Producer func() Actor

var producers = safemap.NewSafeMap[string, Producer]()

// RegisterActor 注册actor类型, 集群内各节点需要用同样的kind注册
func RegisterActor(kind string, producer Producer) {
	if kind == "" || producer == nil {
		panic("actor: RegisterActor with empty kind or nil producer")
	}
	producers.Set(kind, producer)
}

func IsRegistered(kind string) bool {
	_, ok := producers.Get(kind)
	return ok
}

func newActor(kind string) (a Actor, err error) {
	producer, ok := producers.Get(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %w: unknown kind %q", ErrActorNotFound, ErrConstruction, kind)
	}

	defer func() {
		if r := recover(); r != nil {
			a = nil
			err = fmt.Errorf("%w: %w: %s panic: %v", ErrActorNotFound, ErrConstruction, kind, r)
		}
	}()
	a = producer()
	if a == nil {
		return nil, fmt.Errorf("%w: %w: %s produced nil", ErrActorNotFound, ErrConstruction, kind)
	}
	return a, nil
}

type ActorMode int

const (
	LOCAL ActorMode = iota
	REMOTE
)

func (m ActorMode) String() string {
	switch m {
	case LOCAL:
		return "LOCAL"
	case REMOTE:
		return "REMOTE"
	}
	return fmt.Sprintf("ActorMode(%d)", int(m))
}

type SystemMode int

const (
	DEFAULT SystemMode = iota
	CLUSTER
)

func (m SystemMode) String() string {
	if m == CLUSTER {
		return "CLUSTER"
	}
	return "DEFAULT"
}

type ActorState int32

const (
	Created ActorState = iota
	Running
	Stopped
)

func (s ActorState) String() string {
	switch s {
	case Created:
		return "Created"
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	}
	return fmt.Sprintf("ActorState(%d)", int(s))
}
