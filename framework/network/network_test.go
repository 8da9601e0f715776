package network

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameCodec(t *testing.T) {
	buf := &bytes.Buffer{}
	w := bufio.NewWriter(buf)

	small := []byte("hello")
	big := bytes.Repeat([]byte{0xAB}, 300)
	require.NoError(t, WriteFrame(w, small))
	require.NoError(t, WriteFrame(w, big))
	require.NoError(t, w.Flush())

	// 5 < 128 用1字节长度, 300 用2字节
	assert.Equal(t, 1+5+2+300, buf.Len())

	r := bufio.NewReader(buf)
	got, err := ReadFrame(r)
	require.NoError(t, err)
	assert.Equal(t, small, got)
	got, err = ReadFrame(r)
	require.NoError(t, err)
	assert.Equal(t, big, got)

	_, err = ReadFrame(r)
	assert.ErrorIs(t, err, io.EOF)
}

func TestFrameLimits(t *testing.T) {
	w := bufio.NewWriter(&bytes.Buffer{})
	assert.ErrorIs(t, WriteFrame(w, nil), ErrFrameEmpty)
	assert.ErrorIs(t, WriteFrame(w, make([]byte, MaxFrameLength+1)), ErrFrameTooLarge)

	// 5个字节的长度前缀
	r := bufio.NewReader(bytes.NewReader([]byte{0x80, 0x80, 0x80, 0x80, 0x01}))
	_, err := ReadFrame(r)
	assert.ErrorIs(t, err, ErrFrameLenSize)

	// 截断的帧
	r = bufio.NewReader(bytes.NewReader([]byte{0x05, 'a', 'b'}))
	_, err = ReadFrame(r)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestTcpListenConnect(t *testing.T) {
	ctx := context.Background()
	ln, err := TcpListen(ctx, "127.0.0.1:0", WithSocketRcvBufferSize(32*1024))
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		AcceptOptions(conn)
		frame, err := ReadFrame(bufio.NewReader(conn))
		if err == nil {
			accepted <- frame
		}
	}()

	conn, err := TcpConnect(ctx, ln.Addr().String(), WithSocketSendBufferSize(32*1024))
	require.NoError(t, err)
	defer conn.Close()

	w := bufio.NewWriter(conn)
	require.NoError(t, WriteFrame(w, []byte("ping")))
	require.NoError(t, w.Flush())
	assert.Equal(t, []byte("ping"), <-accepted)
}
