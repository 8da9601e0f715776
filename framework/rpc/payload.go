package rpc

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
)

var ErrPayloadNotRegistered = errors.New("payload type not registered")

type PayloadKind uint8

const (
	PayloadNil     PayloadKind = 0
	PayloadProto   PayloadKind = 1
	PayloadMsgpack PayloadKind = 2
)

// Payload 跨进程传递的用户消息
type Payload struct {
	Kind     PayloadKind `msgpack:"k"`
	TypeName string      `msgpack:"t"`
	Data     []byte      `msgpack:"d"`
}

var (
	payloadLock  sync.RWMutex
	payloadTypes = map[string]reflect.Type{}
)

func init() {
	RegisterPayload("")
	RegisterPayload(int(0))
	RegisterPayload(int32(0))
	RegisterPayload(int64(0))
	RegisterPayload(uint64(0))
	RegisterPayload(float64(0))
	RegisterPayload(false)
	RegisterPayload([]byte(nil))
}

// RegisterPayload 注册可以用msgpack跨进程传递的消息类型, proto消息不需要注册
func RegisterPayload(sample any) {
	t := reflect.TypeOf(sample)
	if t == nil {
		panic("register nil payload")
	}
	payloadLock.Lock()
	defer payloadLock.Unlock()
	payloadTypes[payloadTypeName(t)] = t
}

func payloadTypeName(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		return "*" + payloadTypeName(t.Elem())
	}
	if t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

func EncodePayload(msg any) (*Payload, error) {
	if msg == nil {
		return &Payload{Kind: PayloadNil}, nil
	}
	if pbMsg, ok := msg.(proto.Message); ok {
		data, err := proto.Marshal(pbMsg)
		if err != nil {
			return nil, err
		}
		return &Payload{
			Kind:     PayloadProto,
			TypeName: string(pbMsg.ProtoReflect().Descriptor().FullName()),
			Data:     data,
		}, nil
	}

	name := payloadTypeName(reflect.TypeOf(msg))
	payloadLock.RLock()
	_, ok := payloadTypes[name]
	payloadLock.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPayloadNotRegistered, name)
	}

	data, err := msgpack.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return &Payload{Kind: PayloadMsgpack, TypeName: name, Data: data}, nil
}

func DecodePayload(payload *Payload) (any, error) {
	if payload == nil {
		return nil, nil
	}
	switch payload.Kind {
	case PayloadNil:
		return nil, nil
	case PayloadProto:
		mt, err := protoregistry.GlobalTypes.FindMessageByName(protoreflect.FullName(payload.TypeName))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrPayloadNotRegistered, payload.TypeName)
		}
		pbMsg := mt.New().Interface()
		if err := proto.Unmarshal(payload.Data, pbMsg); err != nil {
			return nil, err
		}
		return pbMsg, nil
	case PayloadMsgpack:
		payloadLock.RLock()
		t, ok := payloadTypes[payload.TypeName]
		payloadLock.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPayloadNotRegistered, payload.TypeName)
		}
		if t.Kind() == reflect.Pointer {
			ptr := reflect.New(t.Elem())
			if err := msgpack.Unmarshal(payload.Data, ptr.Interface()); err != nil {
				return nil, err
			}
			return ptr.Interface(), nil
		}
		ptr := reflect.New(t)
		if err := msgpack.Unmarshal(payload.Data, ptr.Interface()); err != nil {
			return nil, err
		}
		return ptr.Elem().Interface(), nil
	default:
		return nil, fmt.Errorf("unknown payload kind %d", payload.Kind)
	}
}
