package rpc

import (
	"fmt"
	"reflect"
	"sync"
)

type msgInfo struct {
	msgId    int32
	name     string
	reqType  reflect.Type
	respType reflect.Type
}

var (
	msgMapLock sync.RWMutex
	msgId2Info = map[int32]*msgInfo{}
	msgName2Id = map[string]int32{}
)

// RegisterMsg 注册rpc消息, req和resp为结构体指针, msgId必须大于0
func RegisterMsg(msgId int32, req any, resp any) {
	if msgId <= 0 {
		panic(fmt.Sprintf("rpc msg id must be positive: %d", msgId))
	}
	reqType := reflect.TypeOf(req)
	respType := reflect.TypeOf(resp)
	if reqType == nil || reqType.Kind() != reflect.Pointer || respType == nil || respType.Kind() != reflect.Pointer {
		panic(fmt.Sprintf("rpc msg %d must be registered with pointers", msgId))
	}

	msgMapLock.Lock()
	defer msgMapLock.Unlock()

	name := reqType.Elem().Name()
	if old, ok := msgId2Info[msgId]; ok && old.name != name {
		panic(fmt.Sprintf("rpc msg id %d registered twice: %s, %s", msgId, old.name, name))
	}
	msgId2Info[msgId] = &msgInfo{
		msgId:    msgId,
		name:     name,
		reqType:  reqType.Elem(),
		respType: respType.Elem(),
	}
	msgName2Id[name] = msgId
}

func GetMsgIdByName(name string) (int32, bool) {
	msgMapLock.RLock()
	defer msgMapLock.RUnlock()
	msgId, ok := msgName2Id[name]
	return msgId, ok
}

func getMsgIdByReq(req any) (int32, bool) {
	t := reflect.TypeOf(req)
	if t == nil || t.Kind() != reflect.Pointer {
		return 0, false
	}
	return GetMsgIdByName(t.Elem().Name())
}

func getMsgInfo(msgId int32) *msgInfo {
	msgMapLock.RLock()
	defer msgMapLock.RUnlock()
	return msgId2Info[msgId]
}
