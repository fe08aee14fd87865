package ttyrec

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	t1 := time.Unix(1700000000, 250000000)
	t2 := time.Unix(1700000001, 0)

	require.NoError(t, w.WriteFrame(t1, []byte("hello")))
	require.NoError(t, w.WriteFrame(t2, nil))

	r := NewReader(&buf)

	f1, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), f1.Data)
	assert.Equal(t, t1.Unix(), f1.Time.Unix())
	assert.Equal(t, int64(250000000), f1.Time.UnixNano()-f1.Time.Unix()*1e9)

	f2, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Empty(t, f2.Data)

	_, err = r.ReadFrame()
	assert.Error(t, err)
}

func TestPlaySpeedsUpPlayback(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	base := time.Unix(1700000000, 0)
	require.NoError(t, w.WriteFrame(base, []byte("a")))
	require.NoError(t, w.WriteFrame(base.Add(100*time.Millisecond), []byte("b")))

	var out bytes.Buffer
	start := time.Now()
	err := Play(context.Background(), &buf, &out, PlayerConfig{Speed: 10})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "ab", out.String())
	assert.Less(t, elapsed, 100*time.Millisecond)
}

func TestPlayCapsIdleGaps(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	base := time.Unix(1700000000, 0)
	require.NoError(t, w.WriteFrame(base, []byte("a")))
	require.NoError(t, w.WriteFrame(base.Add(10*time.Second), []byte("b")))

	var out bytes.Buffer
	start := time.Now()
	err := Play(context.Background(), &buf, &out, PlayerConfig{Speed: 1, MaxIdle: 20 * time.Millisecond})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "ab", out.String())
	assert.Less(t, elapsed, time.Second)
}
