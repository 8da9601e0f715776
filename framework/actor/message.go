package actor

// 投递到mailbox的消息, sender随消息一起传递
type envelope struct {
	message any
	sender  *ActorRef
}
