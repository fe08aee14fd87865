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

// serveStreamer registers a new session for this connection and forwards
// every inbound TerminalOutput/Resize/Heartbeat frame into it until the
// connection closes or read_timeout expires, per §4.6.
func (s *Server) serveStreamer(ctx context.Context, conn net.Conn, dec *wire.Decoder, login wire.Login, displayName string, log zerolog.Logger) {
	id := uuid.NewString()
	sess := registry.NewSession(id, displayName, login.Title, login.Cols, login.Rows)
	sess.OnSlowConsumer = func(watcherID string) {
		log.Info().Str("session", id).Str("watcher", watcherID).Msg("watcher disconnected: slow consumer")
	}

	s.reg.Register(sess)
	log.Info().Str("session", id).Uint16("cols", login.Cols).Uint16("rows", login.Rows).Msg("streamer session registered")

	reason := "streamer disconnected"
	defer func() {
		s.reg.Unregister(id)
		sess.Close(reason)
		log.Info().Str("session", id).Str("reason", reason).Msg("streamer session closed")
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

		frame, err := dec.ReadFrame()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				reason = "read_timeout"
			} else {
				reason = "connection closed"
			}
			return
		}

		switch frame.Kind {
		case wire.KindTerminalOutput:
			sess.Feed(frame.Payload)

		case wire.KindResize:
			r, err := wire.DecodeResize(frame.Payload)
			if err != nil {
				reason = "malformed resize"
				return
			}
			sess.Resize(r.Cols, r.Rows)

		case wire.KindHeartbeat:
			sess.Touch()

		default:
			log.Debug().Str("kind", frame.Kind.String()).Msg("streamer sent unexpected frame kind")
		}
	}
}
