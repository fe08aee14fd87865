package server

import (
	"context"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/teleterm/teleterm/internal/registry"
	"github.com/teleterm/teleterm/internal/wire"
)

// serveWatcher implements the §4.6/§4.7 watcher menu protocol: ListSessions
// replies with a snapshot, WatchSession attaches to one session's fan-out,
// UnwatchSession returns to the menu.
func (s *Server) serveWatcher(_ context.Context, conn net.Conn, dec *wire.Decoder, displayName string, log zerolog.Logger) {
	id := uuid.NewString()
	watcher := registry.NewWatcher(id, displayName, 0, 0, s.cfg.MaxWatcherQueueBytes)

	var attachedSession *registry.Session
	detach := func() {
		if attachedSession != nil {
			attachedSession.DetachWatcher(id)
			attachedSession = nil
		}
	}
	defer detach()

	writerDone := make(chan struct{})
	go s.watcherWriteLoop(conn, watcher, writerDone)
	defer func() {
		watcher.Close()
		<-writerDone
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

		frame, err := dec.ReadFrame()
		if err != nil {
			return
		}

		switch frame.Kind {
		case wire.KindListSessions:
			if err := wire.WriteFrame(conn, wire.KindSessions, wire.EncodeSessions(s.reg.List())); err != nil {
				return
			}

		case wire.KindWatchSession:
			sessionID, err := wire.DecodeWatchSession(frame.Payload)
			if err != nil {
				return
			}
			detach()
			sess, ok := s.reg.Get(sessionID)
			if !ok {
				writeErrorAndLog(conn, log, wire.ErrMalformed, "no such session")
				continue
			}
			sess.AttachWatcher(watcher)
			attachedSession = sess
			log.Info().Str("session", sessionID).Msg("watcher attached")

		case wire.KindUnwatchSession:
			detach()

		default:
			log.Debug().Str("kind", frame.Kind.String()).Msg("watcher sent unexpected frame kind")
		}
	}
}

// watcherWriteLoop drains watcher's outbound queue onto conn until the
// watcher is closed (SlowConsumer eviction or connection teardown) or a
// write fails. A mid-session SlowConsumer eviction closes conn itself, so
// the read loop blocked in dec.ReadFrame() unblocks and tears down too.
func (s *Server) watcherWriteLoop(conn net.Conn, watcher *registry.Watcher, done chan<- struct{}) {
	defer close(done)

	for {
		<-watcher.Notify()
		for {
			kind, payload, ok := watcher.Dequeue()
			if !ok {
				break
			}
			if err := wire.WriteFrame(conn, kind, payload); err != nil {
				return
			}
		}
		if watcher.Closed() {
			conn.Close()
			return
		}
	}
}
