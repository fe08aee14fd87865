package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teleterm/teleterm/internal/wire"
)

func TestAttachWatcherReceivesPrimingBeforeLive(t *testing.T) {
	s := NewSession("s1", "alice", "bash", 80, 24)
	s.Feed([]byte("before attach\r\n"))

	w := NewWatcher("w1", "bob", 80, 24, DefaultMaxWatcherQueueBytes)
	s.AttachWatcher(w)

	s.Feed([]byte("after attach\r\n"))

	kind, _, ok := w.Dequeue()
	require.True(t, ok)
	assert.Equal(t, wire.KindResize, kind)

	kind, payload, ok := w.Dequeue()
	require.True(t, ok)
	assert.Equal(t, wire.KindTerminalOutput, kind)
	assert.NotContains(t, string(payload), "after attach")

	kind, payload, ok = w.Dequeue()
	require.True(t, ok)
	assert.Equal(t, wire.KindTerminalOutput, kind)
	assert.Equal(t, "after attach\r\n", string(payload))
}

func TestTwoWatchersSeeIdenticalSuffix(t *testing.T) {
	s := NewSession("s1", "alice", "bash", 80, 24)

	w1 := NewWatcher("w1", "bob", 80, 24, DefaultMaxWatcherQueueBytes)
	s.AttachWatcher(w1)

	s.Feed([]byte("line one\r\n"))

	w2 := NewWatcher("w2", "carol", 80, 24, DefaultMaxWatcherQueueBytes)
	s.AttachWatcher(w2)

	s.Feed([]byte("line two\r\n"))

	drain := func(w *Watcher) []string {
		var out []string
		for {
			kind, payload, ok := w.Dequeue()
			if !ok {
				break
			}
			if kind == wire.KindTerminalOutput {
				out = append(out, string(payload))
			}
		}
		return out
	}

	w1Frames := drain(w1)
	w2Frames := drain(w2)

	// w1's last frame and w2's last frame (its priming snapshot reflects
	// state as of attach, then the live "line two") must agree on the
	// trailing live content.
	require.NotEmpty(t, w1Frames)
	require.NotEmpty(t, w2Frames)
	assert.Equal(t, w1Frames[len(w1Frames)-1], w2Frames[len(w2Frames)-1])
}

func TestSlowConsumerEvicted(t *testing.T) {
	s := NewSession("s1", "alice", "bash", 80, 24)

	var evicted string
	s.OnSlowConsumer = func(id string) { evicted = id }

	w := NewWatcher("w1", "bob", 80, 24, 16) // tiny cap
	s.AttachWatcher(w)

	s.Feed(make([]byte, 1024))

	assert.Equal(t, "w1", evicted)
}

func TestRegistryListSortedByIdle(t *testing.T) {
	r := New()
	r.Register(NewSession("a", "alice", "bash", 80, 24))
	r.Register(NewSession("b", "bob", "vim", 80, 24))

	infos := r.List()
	require.Len(t, infos, 2)
	assert.LessOrEqual(t, infos[0].IdleSeconds, infos[1].IdleSeconds)
}

func TestRegistryByDisplayName(t *testing.T) {
	r := New()
	r.Register(NewSession("a", "alice", "bash", 80, 24))
	r.Register(NewSession("b", "alice", "vim", 80, 24))
	r.Register(NewSession("c", "bob", "zsh", 80, 24))

	assert.Len(t, r.ByDisplayName("alice"), 2)
	assert.Len(t, r.ByDisplayName("bob"), 1)
	assert.Empty(t, r.ByDisplayName("nobody"))

	r.Unregister("a")
	assert.Len(t, r.ByDisplayName("alice"), 1)

	r.Unregister("b")
	assert.Empty(t, r.ByDisplayName("alice"))
}

func TestRegisterDuplicateIDPanics(t *testing.T) {
	r := New()
	r.Register(NewSession("a", "alice", "bash", 80, 24))

	assert.Panics(t, func() {
		r.Register(NewSession("a", "alice", "bash2", 80, 24))
	})
}
