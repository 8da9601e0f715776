package random

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

func RandUint64() uint64 {
	b := make([]byte, 8)
	rand.Read(b)
	return binary.BigEndian.Uint64(b)
}

// @return 返回值范围[0-0x7FFFFFFFFFFFFFFF],不返回负数方便使用
func RandInt64() int64 {
	return int64(RandUint64() >> 1)
}

// @return 前闭后开取值[min, max)
func RandRangeInt64(min, max int64) int64 {
	if min == max {
		return min
	}
	if min > max {
		min, max = max, min
	}
	return min + RandInt64()%(max-min)
}

// Jitter 在d的基础上随机浮动 ±d*factor, factor取值(0, 1]
func Jitter(d time.Duration, factor float64) time.Duration {
	if d <= 0 || factor <= 0 {
		return d
	}
	if factor > 1 {
		factor = 1
	}
	delta := int64(float64(d) * factor)
	if delta == 0 {
		return d
	}
	return d + time.Duration(RandRangeInt64(-delta, delta+1))
}
