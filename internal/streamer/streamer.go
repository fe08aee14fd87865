// Package streamer implements the streamer-side connection state machine
// of §4.4: it supervises a pty child, keeps a local terminal buffer that
// mirrors pty output regardless of connection state, and maintains a
// best-effort connection to the relay server with transparent reconnect.
package streamer

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/teleterm/teleterm/internal/backoff"
	"github.com/teleterm/teleterm/internal/ptyproc"
	"github.com/teleterm/teleterm/internal/rawterm"
	"github.com/teleterm/teleterm/internal/termbuf"
	"github.com/teleterm/teleterm/internal/wire"
	"github.com/teleterm/teleterm/internal/wireclient"
)

// State names the streamer's position in the §4.4 state machine.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateStreaming
	StateBackoff
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateStreaming:
		return "streaming"
	case StateBackoff:
		return "backoff"
	default:
		return "unknown"
	}
}

// Config describes one streaming session: the server to dial, how to
// authenticate, and the child command to supervise under a pty.
type Config struct {
	Addr      string
	TLSConfig *tls.Config // nil disables TLS

	Method AuthMethod
	Name   string // plain: the login name

	Command string
	Args    []string
	Env     []string

	HeartbeatInterval time.Duration
	BackoffBase       time.Duration
	BackoffMax        time.Duration

	// OpenURL is invoked with an OAuth authorization URL the user should
	// visit. If nil, the URL is logged instead of opened.
	OpenURL func(url string) error

	OnStateChange func(State, error)
	Logger        zerolog.Logger
}

// AuthMethod mirrors wire.AuthMethod to keep this package's public API
// independent of the wire encoding.
type AuthMethod = wire.AuthMethod

const (
	AuthPlain         = wire.AuthPlain
	AuthRecurseCenter = wire.AuthRecurseCenter
)

// Streamer runs one supervised command and keeps it broadcast to a server.
type Streamer struct {
	cfg Config
	sup *ptyproc.Supervisor
	buf *termbuf.Buffer
}

func New(cfg Config) *Streamer {
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = time.Second
	}
	if cfg.BackoffMax == 0 {
		cfg.BackoffMax = 30 * time.Second
	}
	return &Streamer{cfg: cfg}
}

// connWriter serializes frame writes to the active connection; the pty
// output forwarder and the SIGWINCH handler both write concurrently.
type connWriter struct {
	mu sync.Mutex
	w  net.Conn
}

func (c *connWriter) WriteFrame(kind wire.Kind, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return wire.WriteFrame(c.w, kind, payload)
}

// Run starts the supervised command and blocks until ctx is cancelled or
// the command exits. The pty is never paused by connection state: output
// always lands in the local buffer, and is additionally forwarded live
// whenever a connection is in the Streaming state.
func (s *Streamer) Run(ctx context.Context) error {
	cols, rows, err := rawterm.Size(os.Stdout)
	if err != nil {
		cols, rows = 80, 24
	}
	s.buf = termbuf.New(cols, rows)

	sup, err := ptyproc.Start(s.cfg.Command, s.cfg.Args, s.cfg.Env, ptyproc.Size{Cols: cols, Rows: rows})
	if err != nil {
		return fmt.Errorf("streamer: starting %s: %w", s.cfg.Command, err)
	}
	s.sup = sup
	defer sup.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	defer signal.Stop(sigCh)

	var active atomic.Pointer[connWriter]

	childDone := make(chan error, 1)
	go func() { childDone <- sup.Wait() }()

	go func() {
		for chunk := range sup.Output() {
			os.Stdout.Write(chunk)
			s.buf.Feed(chunk)
			if w := active.Load(); w != nil {
				w.WriteFrame(wire.KindTerminalOutput, chunk)
			}
		}
	}()

	go io.Copy(sup, os.Stdin)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigCh:
				newCols, newRows, err := rawterm.Size(os.Stdout)
				if err != nil {
					continue
				}
				sup.Resize(ptyproc.Size{Cols: newCols, Rows: newRows})
				s.buf.Resize(newCols, newRows)
				if w := active.Load(); w != nil {
					w.WriteFrame(wire.KindResize, wire.EncodeResize(wire.Resize{Cols: uint16(newCols), Rows: uint16(newRows)}))
				}
			}
		}
	}()

	b := backoff.New(s.cfg.BackoffBase, s.cfg.BackoffMax)

	for {
		select {
		case err := <-childDone:
			return err
		default:
		}

		s.setState(StateConnecting, nil)
		conn, err := s.dial(ctx)
		if err != nil {
			s.setState(StateBackoff, err)
			if !s.sleepBackoff(ctx, b, childDone) {
				return ctx.Err()
			}
			continue
		}

		dec := wire.NewDecoder(conn)
		w := &connWriter{w: conn}

		s.setState(StateAuthenticating, nil)
		if err := s.authenticate(ctx, conn, dec, w); err != nil {
			conn.Close()
			s.setState(StateBackoff, err)
			if !s.sleepBackoff(ctx, b, childDone) {
				return ctx.Err()
			}
			continue
		}

		b.Reset()
		s.setState(StateStreaming, nil)

		if err := w.WriteFrame(wire.KindTerminalOutput, s.buf.ContentsFormatted()); err != nil {
			conn.Close()
			s.setState(StateBackoff, err)
			if !s.sleepBackoff(ctx, b, childDone) {
				return ctx.Err()
			}
			continue
		}

		active.Store(w)
		err = s.serveConn(ctx, dec, w)
		active.Store(nil)
		conn.Close()

		select {
		case cerr := <-childDone:
			return cerr
		default:
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.setState(StateBackoff, err)
		if !s.sleepBackoff(ctx, b, childDone) {
			return ctx.Err()
		}
	}
}

func (s *Streamer) dial(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{}
	if s.cfg.TLSConfig != nil {
		return tls.DialWithDialer(&d, "tcp", s.cfg.Addr, s.cfg.TLSConfig)
	}
	return d.DialContext(ctx, "tcp", s.cfg.Addr)
}

func (s *Streamer) authenticate(ctx context.Context, conn net.Conn, dec *wire.Decoder, w *connWriter) error {
	cols, rows := s.buf.Size()
	login := wire.Login{
		Method:          s.cfg.Method,
		Name:            s.cfg.Name,
		ProtocolVersion: wire.ProtocolVersion,
		Cols:            uint16(cols),
		Rows:            uint16(rows),
		Title:           s.sup.Title(),
	}
	return wireclient.Authenticate(ctx, conn, dec, login, s.cfg.OpenURL)
}

// serveConn heartbeats and watches for server-initiated frames (errors,
// forced disconnect) until the connection drops.
func (s *Streamer) serveConn(ctx context.Context, dec *wire.Decoder, w *connWriter) error {
	readErrCh := make(chan error, 1)
	go func() {
		for {
			frame, err := dec.ReadFrame()
			if err != nil {
				readErrCh <- err
				return
			}
			switch frame.Kind {
			case wire.KindError:
				ef, decErr := wire.DecodeError(frame.Payload)
				if decErr == nil {
					readErrCh <- fmt.Errorf("server error: %s: %s", ef.Code, ef.Message)
				} else {
					readErrCh <- fmt.Errorf("server sent malformed error frame")
				}
				return
			case wire.KindDisconnected:
				reason, _ := wire.DecodeDisconnected(frame.Payload)
				readErrCh <- fmt.Errorf("server disconnected us: %s", reason)
				return
			}
		}
	}()

	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErrCh:
			return err
		case <-ticker.C:
			if err := w.WriteFrame(wire.KindHeartbeat, nil); err != nil {
				return fmt.Errorf("sending heartbeat: %w", err)
			}
		}
	}
}

func (s *Streamer) setState(state State, err error) {
	s.cfg.Logger.Debug().Str("state", state.String()).Err(err).Msg("streamer state change")
	if s.cfg.OnStateChange != nil {
		s.cfg.OnStateChange(state, err)
	}
}

// sleepBackoff waits out one backoff interval, returning false if ctx was
// cancelled or the child exited during the wait.
func (s *Streamer) sleepBackoff(ctx context.Context, b *backoff.Backoff, childDone <-chan error) bool {
	d := b.Next()
	s.cfg.Logger.Warn().Dur("delay", d).Msg("reconnecting after backoff")
	select {
	case <-ctx.Done():
		return false
	case <-childDone:
		return false
	case <-time.After(d):
		return true
	}
}

// LocalBuffer exposes the streamer's local mirror buffer, e.g. for a
// `record` command that wants to tee pty output independent of streaming.
func (s *Streamer) LocalBuffer() *termbuf.Buffer {
	return s.buf
}

// Supervisor exposes the underlying pty supervisor.
func (s *Streamer) Supervisor() *ptyproc.Supervisor {
	return s.sup
}
