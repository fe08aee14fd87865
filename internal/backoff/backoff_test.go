package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffCapsAndJitters(t *testing.T) {
	b := New(time.Second, 60*time.Second)

	for i := 0; i < 20; i++ {
		d := b.Next()
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 72*time.Second) // 60s cap + 20% jitter
	}
}

func TestBackoffResetRestartsAtBase(t *testing.T) {
	b := New(time.Second, 60*time.Second)
	b.Next()
	b.Next()
	b.Reset()
	d := b.Next()
	assert.LessOrEqual(t, d, 1200*time.Millisecond) // base 1s + 20% jitter
}
