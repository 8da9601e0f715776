package rpc

import (
	"errors"
	"fmt"
	"sync"
)

const (
	ErrCodeOk      int32 = 0
	ErrCodeUnknown int32 = 1
)

type errorEntry struct {
	code int32
	err  error
}

var (
	errCodeLock sync.RWMutex
	errEntries  []errorEntry
)

func init() {
	RegisterError(2, ErrRpcHandlerNotFound)
	RegisterError(3, ErrRpcMsgNotRegistered)
}

// RegisterError 注册跨进程的错误码, 对端返回后可以用errors.Is判断
func RegisterError(code int32, err error) {
	if code <= ErrCodeUnknown || err == nil {
		panic(fmt.Sprintf("invalid rpc error code %d", code))
	}
	errCodeLock.Lock()
	defer errCodeLock.Unlock()
	for _, entry := range errEntries {
		if entry.code == code {
			if entry.err == err {
				return
			}
			panic(fmt.Sprintf("rpc error code %d registered twice", code))
		}
	}
	errEntries = append(errEntries, errorEntry{code: code, err: err})
}

// 错误在网络上的表示
type errorBody struct {
	Codes  []int32 `msgpack:"codes"`
	Detail string  `msgpack:"detail"`
}

func encodeError(err error) (int32, *errorBody) {
	body := &errorBody{Detail: err.Error()}

	errCodeLock.RLock()
	for _, entry := range errEntries {
		if errors.Is(err, entry.err) {
			body.Codes = append(body.Codes, entry.code)
		}
	}
	errCodeLock.RUnlock()

	if len(body.Codes) == 0 {
		return ErrCodeUnknown, body
	}
	return body.Codes[0], body
}

func decodeError(code int32, body *errorBody) error {
	remoteErr := &RemoteError{Code: code}
	codes := []int32{code}
	if body != nil {
		remoteErr.Detail = body.Detail
		if len(body.Codes) > 0 {
			codes = body.Codes
		}
	}

	errCodeLock.RLock()
	defer errCodeLock.RUnlock()
	for _, c := range codes {
		for _, entry := range errEntries {
			if entry.code == c {
				remoteErr.errs = append(remoteErr.errs, entry.err)
			}
		}
	}
	return remoteErr
}

// RemoteError 对端handler返回的错误
type RemoteError struct {
	Code   int32
	Detail string
	errs   []error
}

func (e *RemoteError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("rpc remote error code %d", e.Code)
	}
	return e.Detail
}

func (e *RemoteError) Unwrap() []error {
	return append([]error{ErrRpcRemote}, e.errs...)
}
