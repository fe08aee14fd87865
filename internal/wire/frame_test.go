package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := EncodeLogin(Login{
		Method:          AuthPlain,
		Name:            "alice",
		ProtocolVersion: "1.0.0",
		Cols:            80,
		Rows:            24,
		Title:           "bash",
	})
	require.NoError(t, WriteFrame(&buf, KindLogin, payload))

	dec := NewDecoder(&buf)
	frame, err := dec.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, KindLogin, frame.Kind)

	login, err := DecodeLogin(frame.Payload)
	require.NoError(t, err)
	assert.Equal(t, "alice", login.Name)
	assert.True(t, login.IsStreamer())
}

func TestDecoderYieldsFramesRegardlessOfChunking(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, KindHeartbeat, nil))
	require.NoError(t, WriteFrame(&buf, KindResize, EncodeResize(Resize{Cols: 100, Rows: 40})))
	require.NoError(t, WriteFrame(&buf, KindTerminalOutput, []byte("hello\n")))

	full := buf.Bytes()

	// Trickle one byte at a time through a pipe.
	pr, pw := io.Pipe()
	go func() {
		for _, b := range full {
			pw.Write([]byte{b})
		}
		pw.Close()
	}()

	dec := NewDecoder(pr)

	f1, err := dec.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, KindHeartbeat, f1.Kind)

	f2, err := dec.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, KindResize, f2.Kind)
	resize, err := DecodeResize(f2.Payload)
	require.NoError(t, err)
	assert.Equal(t, uint16(100), resize.Cols)

	f3, err := dec.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, KindTerminalOutput, f3.Kind)
	assert.Equal(t, "hello\n", string(f3.Payload))
}

func TestOversizedFrameRejected(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, KindTerminalOutput, make([]byte, 100)))

	dec := NewDecoderSize(&buf, 10)
	_, err := dec.ReadFrame()
	assert.ErrorIs(t, err, ErrOversizedFrame)
}

func TestSessionsRoundTrip(t *testing.T) {
	in := []SessionInfo{
		{ID: "abc", DisplayName: "alice", Title: "bash", Cols: 80, Rows: 24, IdleSeconds: 5, WatcherCount: 2},
		{ID: "def", DisplayName: "bob", Title: "vim", Cols: 120, Rows: 30, IdleSeconds: 0, WatcherCount: 0},
	}
	out, err := DecodeSessions(EncodeSessions(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestErrorFrameRoundTrip(t *testing.T) {
	in := ErrorFrame{Code: ErrSlowConsumer, Message: "queue exceeded 4194304 bytes"}
	out, err := DecodeError(EncodeError(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
