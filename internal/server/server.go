// Package server implements the relay server's dispatch loop of §4.6: it
// accepts connections, classifies each as a streamer or a watcher from its
// first frame, authenticates, and routes frames into the session registry.
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/blang/semver"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/teleterm/teleterm/internal/auth"
	"github.com/teleterm/teleterm/internal/registry"
	"github.com/teleterm/teleterm/internal/wire"
)

// serverVersion is the parsed form of wire.ProtocolVersion, computed once.
var serverVersion = semver.MustParse(wire.ProtocolVersion)

// compatibleVersion reports whether a client's protocol version can talk to
// this server: same major version, client minor/patch may lag or lead.
func compatibleVersion(clientVersion string) bool {
	cv, err := semver.Parse(clientVersion)
	if err != nil {
		return false
	}
	return cv.Major == serverVersion.Major
}

// Config holds everything the dispatch loop needs, already resolved from
// the TOML config file and command-line flags.
type Config struct {
	ListenAddr string
	TLSConfig  *tls.Config // nil disables TLS

	AllowedMethods map[wire.AuthMethod]bool
	OAuthProviders map[wire.AuthMethod]auth.OAuthExchanger

	ReadTimeout          time.Duration
	MaxWatcherQueueBytes int
	Logger               zerolog.Logger
}

// Listen binds the configured address, applying TLS if configured. Must be
// called while still running with whatever privileges binding ListenAddr
// requires (e.g. a port below 1024); call DropPrivileges after it returns
// and before Serve.
func (s *Server) Listen() (net.Listener, error) {
	var ln net.Listener
	var err error
	if s.cfg.TLSConfig != nil {
		ln, err = tls.Listen("tcp", s.cfg.ListenAddr, s.cfg.TLSConfig)
	} else {
		ln, err = net.Listen("tcp", s.cfg.ListenAddr)
	}
	if err != nil {
		return nil, fmt.Errorf("server: listen on %s: %w", s.cfg.ListenAddr, err)
	}
	return ln, nil
}

// Server is the relay: one session registry fed by any number of streamer
// and watcher connections.
type Server struct {
	cfg Config
	reg *registry.Registry
}

func New(cfg Config) *Server {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 120 * time.Second
	}
	return &Server{cfg: cfg, reg: registry.New()}
}

// Registry exposes the session registry, e.g. for a status/metrics endpoint.
func (s *Server) Registry() *registry.Registry {
	return s.reg
}

// ListenAndServe binds the listener and serves on it until ctx is
// cancelled. Callers that need to drop privileges between binding and
// serving (§4.6: bind the privileged port, then drop to the configured
// uid/gid) should call Listen and Serve separately instead.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on the given listener until ctx is cancelled.
// ln is normally the result of Listen, bound earlier while privileged.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()

	s.cfg.Logger.Info().Str("addr", s.cfg.ListenAddr).Bool("tls", s.cfg.TLSConfig != nil).Msg("listening")

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("server: accept: %w", err)
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	log := s.cfg.Logger.With().Str("remote", conn.RemoteAddr().String()).Logger()

	conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	dec := wire.NewDecoder(conn)

	frame, err := dec.ReadFrame()
	if err != nil {
		log.Debug().Err(err).Msg("connection closed before login")
		return
	}
	if frame.Kind != wire.KindLogin {
		writeErrorAndLog(conn, log, wire.ErrMalformed, "first frame must be Login")
		return
	}

	login, err := wire.DecodeLogin(frame.Payload)
	if err != nil {
		writeErrorAndLog(conn, log, wire.ErrMalformed, "malformed login frame")
		return
	}
	log = log.With().Str("method", login.Method.String()).Logger()

	if !compatibleVersion(login.ProtocolVersion) {
		writeErrorAndLog(conn, log, wire.ErrProtocolMismatch, fmt.Sprintf("server speaks protocol %s", wire.ProtocolVersion))
		return
	}

	if !s.cfg.AllowedMethods[login.Method] {
		writeErrorAndLog(conn, log, wire.ErrAuthMethodNotAllowed, fmt.Sprintf("method %s not allowed", login.Method))
		return
	}

	displayName, err := s.authenticate(ctx, conn, dec, login)
	if err != nil {
		log.Warn().Err(err).Msg("authentication failed")
		writeErrorAndLog(conn, log, wire.ErrAuthFailed, "authentication failed")
		return
	}
	log = log.With().Str("user", displayName).Logger()

	conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

	if login.IsStreamer() {
		s.serveStreamer(ctx, conn, dec, login, displayName, log)
	} else {
		s.serveWatcher(ctx, conn, dec, displayName, log)
	}
}

// authenticate runs the plain or OAuth adapter named by login.Method,
// per §4.8. For OAuth methods it drives the three-message dance: issue a
// request URL, await the client's captured code, exchange it.
func (s *Server) authenticate(ctx context.Context, conn net.Conn, dec *wire.Decoder, login wire.Login) (string, error) {
	if login.Method == wire.AuthPlain {
		return (auth.Plain{}).Authenticate(login.Name)
	}

	provider, ok := s.cfg.OAuthProviders[login.Method]
	if !ok {
		return "", fmt.Errorf("%w: no provider configured for %s", auth.ErrAuthFailed, login.Method)
	}

	state := uuid.NewString()
	req := wire.OauthCliRequest{Method: login.Method, URL: provider.RequestURL(state)}
	if err := wire.WriteFrame(conn, wire.KindOauthCliRequest, wire.EncodeOauthCliRequest(req)); err != nil {
		return "", fmt.Errorf("sending oauth request: %w", err)
	}

	frame, err := dec.ReadFrame()
	if err != nil {
		return "", fmt.Errorf("reading oauth response: %w", err)
	}
	if frame.Kind != wire.KindOauthCliResponse {
		return "", fmt.Errorf("%w: expected OauthCliResponse, got %s", auth.ErrAuthFailed, frame.Kind)
	}

	resp, err := wire.DecodeOauthCliResponse(frame.Payload)
	if err != nil {
		return "", fmt.Errorf("decoding oauth response: %w", err)
	}

	return provider.Exchange(ctx, resp.Code)
}

func writeErrorAndLog(conn net.Conn, log zerolog.Logger, code wire.ErrorCode, message string) {
	if err := wire.WriteFrame(conn, wire.KindError, wire.EncodeError(wire.ErrorFrame{Code: code, Message: message})); err != nil {
		log.Debug().Err(err).Msg("failed to write error frame")
	}
}
