package actor

import (
	"context"
	"strings"
)

// ActorRef actor的位置透明引用, name在集群内唯一, 格式 host/id
type ActorRef struct {
	name   string
	system *ActorSystem
	// 转发时携带的原始发送者, nil表示自身
	originalSender *ActorRef
}

func newActorRef(system *ActorSystem, name string) *ActorRef {
	return &ActorRef{
		name:   name,
		system: system,
	}
}

func (ref *ActorRef) Name() string {
	return ref.name
}

// Host 名字中第一个'/'之前的部分, 用于集群路由
func (ref *ActorRef) Host() string {
	return HostOf(ref.name)
}

func (ref *ActorRef) String() string {
	return ref.name
}

func (ref *ActorRef) System() *ActorSystem {
	return ref.system
}

// OriginalSender 回复应该发往的引用
func (ref *ActorRef) OriginalSender() *ActorRef {
	if ref.originalSender == nil {
		return ref
	}
	return ref.originalSender
}

// Relay 返回一个副本, 经它发送的消息以original作为发送者
func (ref *ActorRef) Relay(original *ActorRef) *ActorRef {
	relay := *ref
	if original != nil && original.name != ref.name {
		relay.originalSender = original.OriginalSender()
	} else {
		relay.originalSender = nil
	}
	return &relay
}

func (ref *ActorRef) Send(message any, to *ActorRef) error {
	return ref.SendContext(context.Background(), message, to)
}

// SendContext 本地actor直接入队; 已知的远程actor经Transport转发; 否则返回ErrActorNotFound
func (ref *ActorRef) SendContext(ctx context.Context, message any, to *ActorRef) error {
	if to == nil {
		return notFound("<nil>")
	}
	return ref.system.route(ctx, ref.OriginalSender(), to.name, message)
}

func (ref *ActorRef) Equal(other *ActorRef) bool {
	if ref == nil || other == nil {
		return ref == other
	}
	return ref.name == other.name
}

func HostOf(name string) string {
	if idx := strings.IndexByte(name, '/'); idx >= 0 {
		return name[:idx]
	}
	return name
}
