package watcherui

import (
	"context"
	"fmt"
	"net"
	"sort"

	"github.com/teleterm/teleterm/internal/wire"
)

// menuLoop alternates between the session list (requesting Sessions and
// waiting for a letter keypress) and attached mode (piping one session's
// output to stdout until 'q' or a server-initiated disconnect).
func (c *Client) menuLoop(ctx context.Context, conn net.Conn, dec *wire.Decoder, keys <-chan byte) error {
	for {
		sessions, err := c.requestSessions(conn, dec)
		if err != nil {
			return err
		}

		sort.Slice(sessions, func(i, j int) bool { return sessions[i].IdleSeconds < sessions[j].IdleSeconds })
		c.renderMenu(sessions)

		choice, ok := <-keys
		if !ok {
			return nil
		}
		if choice == 'q' || choice == 'Q' {
			return nil
		}

		idx := letterIndex(choice)
		if idx < 0 || idx >= len(sessions) {
			fmt.Fprintf(c.out, "\r\nno such session\r\n")
			continue
		}

		if err := c.attach(ctx, conn, dec, keys, sessions[idx]); err != nil {
			return err
		}
	}
}

// requestSessions sends ListSessions and waits for the matching Sessions
// reply. A well-behaved server answers ListSessions with exactly one
// Sessions frame, so the first frame back is assumed to be it.
func (c *Client) requestSessions(conn net.Conn, dec *wire.Decoder) ([]wire.SessionInfo, error) {
	if err := wire.WriteFrame(conn, wire.KindListSessions, nil); err != nil {
		return nil, fmt.Errorf("watcher: requesting session list: %w", err)
	}
	frame, err := dec.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("watcher: reading session list: %w", err)
	}
	switch frame.Kind {
	case wire.KindSessions:
		return wire.DecodeSessions(frame.Payload)
	case wire.KindError:
		ef, _ := wire.DecodeError(frame.Payload)
		return nil, fmt.Errorf("server error: %s: %s", ef.Code, ef.Message)
	default:
		return nil, fmt.Errorf("watcher: unexpected frame %s while listing sessions", frame.Kind)
	}
}

// attach watches one session: sends WatchSession, streams TerminalOutput to
// stdout, and returns to the menu on 'q', a Disconnected frame, or an Error.
func (c *Client) attach(ctx context.Context, conn net.Conn, dec *wire.Decoder, keys <-chan byte, sess wire.SessionInfo) error {
	if err := wire.WriteFrame(conn, wire.KindWatchSession, wire.EncodeWatchSession(sess.ID)); err != nil {
		return fmt.Errorf("watcher: watching %s: %w", sess.ID, err)
	}

	fmt.Fprintf(c.out, "\x1b[2J\x1b[H")

	frames := make(chan *wire.Frame, 8)
	readErr := make(chan error, 1)
	go func() {
		for {
			frame, err := dec.ReadFrame()
			if err != nil {
				readErr <- err
				return
			}
			frames <- frame
			if frame.Kind == wire.KindDisconnected || frame.Kind == wire.KindError {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-readErr:
			return fmt.Errorf("watcher: connection lost: %w", err)

		case frame := <-frames:
			switch frame.Kind {
			case wire.KindTerminalOutput:
				c.out.Write(frame.Payload)
			case wire.KindDisconnected:
				reason, _ := wire.DecodeDisconnected(frame.Payload)
				fmt.Fprintf(c.out, "\r\n[session ended: %s]\r\n", reason)
				return nil
			case wire.KindError:
				ef, _ := wire.DecodeError(frame.Payload)
				fmt.Fprintf(c.out, "\r\n[error: %s: %s]\r\n", ef.Code, ef.Message)
				return nil
			}

		case key, ok := <-keys:
			if !ok {
				return nil
			}
			if key == 'q' || key == 'Q' {
				wire.WriteFrame(conn, wire.KindUnwatchSession, wire.EncodeWatchSession(sess.ID))
				return nil
			}
		}
	}
}

// letterIndex maps a-z to 0-25, anything else to -1.
func letterIndex(b byte) int {
	switch {
	case b >= 'a' && b <= 'z':
		return int(b - 'a')
	case b >= 'A' && b <= 'Z':
		return int(b - 'A')
	default:
		return -1
	}
}
