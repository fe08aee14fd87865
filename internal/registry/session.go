// Package registry holds the set of currently active broadcast sessions
// and the watchers attached to them. See §3 (Data Model) and §4.5.
package registry

import (
	"sync"
	"time"

	"github.com/teleterm/teleterm/internal/termbuf"
	"github.com/teleterm/teleterm/internal/wire"
)

// Session is one live broadcast: the streamer's terminal buffer plus the
// set of watchers currently attached to it. A session's own lock (not the
// registry's) serializes every operation against it, so attaches, feeds,
// and resizes from concurrent goroutines never interleave (§4.5, §5).
type Session struct {
	ID          string
	DisplayName string

	mu             sync.Mutex
	title          string
	cols           uint16
	rows           uint16
	createdAt      time.Time
	lastActivityAt time.Time
	buffer         *termbuf.Buffer
	watchers       map[string]*Watcher

	// OnSlowConsumer, if set, is invoked (outside the session lock) for
	// every watcher evicted by a queue overflow, so the owning connection
	// can close its socket.
	OnSlowConsumer func(watcherID string)
}

// NewSession creates a session with the given display name, title, and
// initial terminal size.
func NewSession(id, displayName, title string, cols, rows uint16) *Session {
	now := time.Now()
	return &Session{
		ID:             id,
		DisplayName:    displayName,
		title:          title,
		cols:           cols,
		rows:           rows,
		createdAt:      now,
		lastActivityAt: now,
		buffer:         termbuf.New(int(cols), int(rows)),
		watchers:       make(map[string]*Watcher),
	}
}

// Feed advances the session's terminal buffer and broadcasts the raw
// output to every attached watcher, in the order received — the ordering
// invariant of §5 falls directly out of this being the only place output
// is ever written to the buffer or fanned out.
func (s *Session) Feed(data []byte) {
	s.mu.Lock()
	s.buffer.Feed(data)
	s.lastActivityAt = time.Now()
	watchers := s.watcherList()
	s.mu.Unlock()

	s.broadcast(watchers, wire.KindTerminalOutput, data)
}

// Resize changes the session's terminal size and broadcasts the change.
// Per §4.5/§9, watchers are not resized or reflowed — they merely receive
// the new size and may render a mismatch indicator.
func (s *Session) Resize(cols, rows uint16) {
	s.mu.Lock()
	s.cols, s.rows = cols, rows
	s.buffer.Resize(int(cols), int(rows))
	s.lastActivityAt = time.Now()
	watchers := s.watcherList()
	s.mu.Unlock()

	s.broadcast(watchers, wire.KindResize, wire.EncodeResize(wire.Resize{Cols: cols, Rows: rows}))
}

// Touch records heartbeat activity without mutating the buffer.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivityAt = time.Now()
}

// AttachWatcher adds w to the session's watcher set and sends it the
// priming frames of §4.5: the current size, then a synthetic
// TerminalOutput replaying the buffer's full contents. Both are enqueued
// before AttachWatcher returns, so no frame generated after this call can
// reach w ahead of its priming snapshot (§5's "attach ordering" guarantee).
func (s *Session) AttachWatcher(w *Watcher) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.watchers[w.ID] = w

	w.Enqueue(wire.KindResize, wire.EncodeResize(wire.Resize{Cols: s.cols, Rows: s.rows}))
	w.Enqueue(wire.KindTerminalOutput, s.buffer.ContentsFormatted())
}

// DetachWatcher removes w from the session's watcher set.
func (s *Session) DetachWatcher(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.watchers, id)
}

// Info returns a snapshot of the session suitable for a Sessions frame.
func (s *Session) Info() wire.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return wire.SessionInfo{
		ID:           s.ID,
		DisplayName:  s.DisplayName,
		Title:        s.title,
		Cols:         s.cols,
		Rows:         s.rows,
		IdleSeconds:  uint32(time.Since(s.lastActivityAt).Seconds()),
		WatcherCount: uint32(len(s.watchers)),
	}
}

// Close tears down the session: every attached watcher is sent a
// Disconnected frame (queued ahead of its closure, so the frame is the
// last thing the watcher's connection drains) and then closed. Called
// once, when the streamer disconnects or its read_timeout expires.
func (s *Session) Close(reason string) {
	s.mu.Lock()
	watchers := s.watcherList()
	s.watchers = make(map[string]*Watcher)
	s.mu.Unlock()

	payload := wire.EncodeDisconnected(reason)
	for _, w := range watchers {
		w.Enqueue(wire.KindDisconnected, payload)
		w.Close()
	}
}

// watcherList returns a snapshot slice of currently attached watchers.
// Must be called with s.mu held.
func (s *Session) watcherList() []*Watcher {
	out := make([]*Watcher, 0, len(s.watchers))
	for _, w := range s.watchers {
		out = append(out, w)
	}
	return out
}

// broadcast enqueues a frame on every watcher in watchers, evicting (and
// reporting via OnSlowConsumer) any whose queue overflows. Called without
// s.mu held so a slow watcher's eviction callback can safely re-enter the
// session (e.g. to call DetachWatcher).
func (s *Session) broadcast(watchers []*Watcher, kind wire.Kind, payload []byte) {
	for _, w := range watchers {
		if !w.Enqueue(kind, payload) {
			s.DetachWatcher(w.ID)
			if s.OnSlowConsumer != nil {
				s.OnSlowConsumer(w.ID)
			}
		}
	}
}
