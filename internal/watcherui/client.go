// Package watcherui implements the watcher CLI's keyboard-driven menu of
// §4.7: list active sessions, attach to one by letter, detach with 'q'.
package watcherui

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/teleterm/teleterm/internal/rawterm"
	"github.com/teleterm/teleterm/internal/wire"
	"github.com/teleterm/teleterm/internal/wireclient"
)

// Config describes one watcher session: the server to dial and how to
// authenticate as a viewer (a Login with no terminal size).
type Config struct {
	Addr      string
	TLSConfig *tls.Config

	Method wire.AuthMethod
	Name   string

	OpenURL func(url string) error
	Logger  zerolog.Logger
}

// Client drives the watcher protocol against one server connection.
type Client struct {
	cfg Config
	in  *os.File
	out *os.File
}

func New(cfg Config) *Client {
	return &Client{cfg: cfg, in: os.Stdin, out: os.Stdout}
}

// Run connects, authenticates, and runs the menu loop until ctx is
// cancelled or the user quits from the top-level menu.
func (c *Client) Run(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("watcher: connecting to %s: %w", c.cfg.Addr, err)
	}
	defer conn.Close()

	dec := wire.NewDecoder(conn)
	login := wire.Login{
		Method:          c.cfg.Method,
		Name:            c.cfg.Name,
		ProtocolVersion: wire.ProtocolVersion,
	}
	if err := wireclient.Authenticate(ctx, conn, dec, login, c.cfg.OpenURL); err != nil {
		return fmt.Errorf("watcher: login: %w", err)
	}

	var raw *rawterm.State
	if isatty.IsTerminal(c.in.Fd()) {
		raw, err = rawterm.MakeRaw(int(c.in.Fd()))
		if err != nil {
			c.cfg.Logger.Warn().Err(err).Msg("failed to set raw mode, falling back to line mode")
		} else {
			defer raw.Restore()
		}
	}

	keys := make(chan byte, 16)
	go readKeys(ctx, c.in, keys)

	return c.menuLoop(ctx, conn, dec, keys)
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{}
	if c.cfg.TLSConfig != nil {
		return tls.DialWithDialer(&d, "tcp", c.cfg.Addr, c.cfg.TLSConfig)
	}
	return d.DialContext(ctx, "tcp", c.cfg.Addr)
}

// readKeys copies single bytes from in to out until in errors or ctx ends.
// Run with the terminal in raw mode, each byte is one keypress.
func readKeys(ctx context.Context, in *os.File, out chan<- byte) {
	defer close(out)
	buf := make([]byte, 1)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			select {
			case out <- buf[0]:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			return
		}
	}
}
