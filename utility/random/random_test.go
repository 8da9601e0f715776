package random

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRandRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		v := RandRangeInt64(-5, 5)
		assert.GreaterOrEqual(t, v, int64(-5))
		assert.Less(t, v, int64(5))
	}
	assert.Equal(t, int64(3), RandRangeInt64(3, 3))
	assert.GreaterOrEqual(t, RandInt64(), int64(0))
}

func TestJitter(t *testing.T) {
	d := 100 * time.Millisecond
	for i := 0; i < 1000; i++ {
		j := Jitter(d, 0.2)
		assert.GreaterOrEqual(t, j, 80*time.Millisecond)
		assert.LessOrEqual(t, j, 120*time.Millisecond)
	}
	assert.Equal(t, d, Jitter(d, 0))
	assert.Equal(t, time.Duration(0), Jitter(0, 0.5))
}
