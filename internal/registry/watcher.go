package registry

import (
	"sync"

	"github.com/teleterm/teleterm/internal/wire"
)

// DefaultMaxWatcherQueueBytes is the default bound on a watcher's pending
// outbound bytes before it is disconnected as a SlowConsumer (§4.5).
const DefaultMaxWatcherQueueBytes = 4 * 1024 * 1024

type queuedFrame struct {
	kind    wire.Kind
	payload []byte
}

// Watcher is a viewing connection's server-side handle: an identity plus a
// bounded, byte-accounted outbound queue. The queue is owned exclusively by
// this watcher (§5) — nothing else ever drains or mutates it.
type Watcher struct {
	ID          string
	DisplayName string
	Cols        uint16
	Rows        uint16

	maxBytes int

	mu         sync.Mutex
	queue      []queuedFrame
	queueBytes int
	closed     bool

	notify chan struct{}
}

// NewWatcher creates a watcher with the given outbound queue cap in bytes.
func NewWatcher(id, displayName string, cols, rows uint16, maxBytes int) *Watcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxWatcherQueueBytes
	}
	return &Watcher{
		ID:          id,
		DisplayName: displayName,
		Cols:        cols,
		Rows:        rows,
		maxBytes:    maxBytes,
		notify:      make(chan struct{}, 1),
	}
}

// Enqueue appends a frame to the outbound queue. It returns false if doing
// so would exceed the byte cap, in which case the watcher is marked closed:
// Session.broadcast then detaches it, and the watcher's write loop closes
// its connection. No Error{SlowConsumer} frame is sent to the peer before
// that close. Per §5, a slow watcher is never allowed to slow anyone
// else, so this call never blocks.
func (w *Watcher) Enqueue(kind wire.Kind, payload []byte) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return false
	}

	if w.queueBytes+len(payload) > w.maxBytes {
		w.closed = true
		select {
		case w.notify <- struct{}{}:
		default:
		}
		return false
	}

	w.queue = append(w.queue, queuedFrame{kind: kind, payload: payload})
	w.queueBytes += len(payload)

	select {
	case w.notify <- struct{}{}:
	default:
	}

	return true
}

// Dequeue pops the oldest pending frame, if any.
func (w *Watcher) Dequeue() (kind wire.Kind, payload []byte, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.queue) == 0 {
		return 0, nil, false
	}

	f := w.queue[0]
	w.queue = w.queue[1:]
	w.queueBytes -= len(f.payload)
	return f.kind, f.payload, true
}

// Notify returns a channel that receives a value whenever a frame becomes
// available to dequeue. The writer goroutine should drain Dequeue in a
// loop after each wakeup, since multiple enqueues can coalesce into one
// notification.
func (w *Watcher) Notify() <-chan struct{} {
	return w.notify
}

// Close marks the watcher closed; further Enqueue calls fail immediately.
// Wakes any goroutine blocked in Notify() so it can observe Closed().
func (w *Watcher) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// Closed reports whether the watcher has been closed, either by a
// SlowConsumer eviction or by its session tearing down.
func (w *Watcher) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// QueueBytes returns the current pending byte count, for diagnostics.
func (w *Watcher) QueueBytes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.queueBytes
}
