package rpc

import (
	"encoding/binary"
	"errors"
)

const innerHeadLen = 16

var ErrInnerMessageHead = errors.New("unmarshal inner message head error")

// 服务器内部协议头
type InnerMessageHead struct {
	CallId  int64 // keep reponse callid equals to request callid
	MsgID   int32 // 大于0表示rpc请求消息，等于0表示rpc返回的消息
	ErrCode int32 // 返回消息的错误码, 非0时body为errorBody
}

// 服务器内部协议
type InnerMessage struct {
	Head InnerMessageHead
	Body []byte // msgpack
}

// |CallId-8bytes|MsgID-4bytes|ErrCode-4bytes|body-nbytes|
func encodeInnerMessage(msg *InnerMessage) []byte {
	out := make([]byte, innerHeadLen, innerHeadLen+len(msg.Body))
	skip := 0
	binary.LittleEndian.PutUint64(out[skip:], uint64(msg.Head.CallId))
	skip += 8
	binary.LittleEndian.PutUint32(out[skip:], uint32(msg.Head.MsgID))
	skip += 4
	binary.LittleEndian.PutUint32(out[skip:], uint32(msg.Head.ErrCode))
	return append(out, msg.Body...)
}

func decodeInnerMessage(in []byte) (*InnerMessage, error) {
	if len(in) < innerHeadLen {
		return nil, ErrInnerMessageHead
	}
	msg := &InnerMessage{}
	skip := 0
	msg.Head.CallId = int64(binary.LittleEndian.Uint64(in[skip:]))
	skip += 8
	msg.Head.MsgID = int32(binary.LittleEndian.Uint32(in[skip:]))
	skip += 4
	msg.Head.ErrCode = int32(binary.LittleEndian.Uint32(in[skip:]))
	skip += 4
	msg.Body = in[skip:]
	return msg, nil
}
