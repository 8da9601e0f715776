package actor

import (
	"errors"
	"fmt"
)

var (
	ErrActorNotFound      = errors.New("actor not found")
	ErrUnsupportedMessage = errors.New("unsupported message")
	ErrRemoteUnavailable  = errors.New("remote unavailable")
	ErrConstruction       = errors.New("actor construction failed")
	ErrActorExists        = errors.New("actor already exists")
	ErrSystemStopped      = errors.New("actor system stopped")
)

// UnsupportedMessage 在Receive中遇到无法处理的消息时返回
func UnsupportedMessage(msg any) error {
	return fmt.Errorf("%w: %T", ErrUnsupportedMessage, msg)
}

func notFound(name string) error {
	return fmt.Errorf("%w: %s", ErrActorNotFound, name)
}
