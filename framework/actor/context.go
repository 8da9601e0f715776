package actor

import (
	"context"
	"fmt"
)

// actor context 接口定义
// 在actor的Receive方法中传递过去, 只在Receive期间有效
type Context interface {
	Self() *ActorRef      // actor自身引用
	Sender() *ActorRef    // 当前消息的发送者, 可能为nil
	Message() any         // 用户具体消息
	System() *ActorSystem // 所属actor系统

	Send(message any, target *ActorRef) error // 以自身名义发送
	Reply(message any) error                  // 回复当前消息的发送者
	Forward(target *ActorRef) error           // 转发当前消息, 保留原始发送者

	Spawn(actor Actor) (*ActorRef, error)
	SpawnNamed(name string, actor Actor) (*ActorRef, error)

	Stop() // 处理完当前消息后停止自身
}

type actorContext struct {
	cell   *actorCell
	msg    any
	sender *ActorRef
}

func newActorContext(cell *actorCell) *actorContext {
	return &actorContext{cell: cell}
}

func (ctx *actorContext) Self() *ActorRef {
	return ctx.cell.self
}

func (ctx *actorContext) Sender() *ActorRef {
	return ctx.sender
}

func (ctx *actorContext) Message() any {
	return ctx.msg
}

func (ctx *actorContext) System() *ActorSystem {
	return ctx.cell.system
}

func (ctx *actorContext) Send(message any, target *ActorRef) error {
	return ctx.cell.self.Send(message, target)
}

func (ctx *actorContext) Reply(message any) error {
	if ctx.sender == nil {
		return fmt.Errorf("%w: message %T has no sender", ErrActorNotFound, ctx.msg)
	}
	return ctx.cell.self.Send(message, ctx.sender)
}

func (ctx *actorContext) Forward(target *ActorRef) error {
	from := ctx.cell.self
	if ctx.sender != nil {
		from = from.Relay(ctx.sender)
	}
	return from.Send(ctx.msg, target)
}

func (ctx *actorContext) Spawn(actor Actor) (*ActorRef, error) {
	return ctx.SpawnNamed("", actor)
}

func (ctx *actorContext) SpawnNamed(name string, actor Actor) (*ActorRef, error) {
	return ctx.cell.system.SpawnNamed(context.Background(), name, actor)
}

func (ctx *actorContext) Stop() {
	ctx.cell.requestStop()
}
