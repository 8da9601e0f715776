package actor

import "context"

// Transport 集群模式下跨进程的名字绑定和消息转发
type Transport interface {
	// Bind 把本地actor名字发布到名字服务, 已被绑定时返回ErrActorExists
	Bind(ctx context.Context, name string) error
	Unbind(ctx context.Context, name string) error
	// Forward 把消息发到 to 所在的节点, from 为回复地址
	Forward(ctx context.Context, from string, to string, msg any) error
}
