package network

import (
	"bufio"
	"errors"
	"io"
)

const (
	MaxFrameLength     = 2 * 1024 * 1024 // 2M
	MaxFrameLengthSize = 4               // beyond 2M
)

var (
	ErrFrameEmpty    = errors.New("encode tcp frame length error")
	ErrFrameTooLarge = errors.New("tcp frame length greater than max frame length")
	ErrFrameLenSize  = errors.New("decode length beyond max length size")
)

// 可变长度帧 (类utf8编码): |len 7bit一组, 最高位表示后续还有|content|
func WriteFrame(w *bufio.Writer, buf []byte) error {
	length := len(buf)
	if length <= 0 {
		return ErrFrameEmpty
	}
	if length > MaxFrameLength {
		return ErrFrameTooLarge
	}

	for {
		b := byte(length & 0x7F)
		length = length >> 7
		if length > 0 {
			if err := w.WriteByte(0x80 | b); err != nil {
				return err
			}
		} else {
			if err := w.WriteByte(b); err != nil {
				return err
			}
			break
		}
	}
	_, err := w.Write(buf)
	return err
}

func ReadFrame(r *bufio.Reader) ([]byte, error) {
	frameLen := 0
	for index := 0; ; index++ {
		if index+1 > MaxFrameLengthSize {
			return nil, ErrFrameLenSize
		}
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		frameLen = (int(b)&0x7F)<<(7*index) | frameLen
		if frameLen > MaxFrameLength {
			return nil, ErrFrameTooLarge
		}
		if b&0x80 == 0 {
			break
		}
	}

	if frameLen <= 0 {
		return nil, ErrFrameEmpty
	}

	content := make([]byte, frameLen)
	if _, err := io.ReadFull(r, content); err != nil {
		return nil, err
	}
	return content, nil
}
