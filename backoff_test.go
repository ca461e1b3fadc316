package quill

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialBackoffDoubles(t *testing.T) {
	b := ExponentialBackoff{}
	for i := 0; i < 10; i++ {
		want := time.Duration(1<<uint(i)) * time.Second
		assert.Equal(t, want, b.Delay(i), "attempt %d", i)
	}
}

func TestExponentialBackoffCustomUnit(t *testing.T) {
	b := ExponentialBackoff{Unit: 5 * time.Millisecond}
	assert.Equal(t, 5*time.Millisecond, b.Delay(0))
	assert.Equal(t, 10*time.Millisecond, b.Delay(1))
	assert.Equal(t, 40*time.Millisecond, b.Delay(3))
}

func TestExponentialBackoffNegativeAttempt(t *testing.T) {
	b := ExponentialBackoff{}
	assert.Equal(t, time.Second, b.Delay(-1))
}
