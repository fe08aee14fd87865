// Package wireclient holds the client-side half of the Login handshake
// shared by the streamer and watcher CLIs: send Login, and if the server
// responds with an OAuth challenge, drive the three-message dance of
// §4.4/§4.8 before returning.
package wireclient

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/teleterm/teleterm/internal/auth"
	"github.com/teleterm/teleterm/internal/wire"
)

// Authenticate sends login over conn and, if challenged with an OAuth
// request, opens the authorization URL (via openURL, or by printing it to
// stderr if openURL is nil) and captures the redirect code on the fixed
// loopback listener before replying. Returns an error if the server
// rejects the login before or instead of the OAuth challenge.
//
// A successful login gets no acknowledgement frame — the server only ever
// speaks again to challenge (OAuth) or reject (Error, then close) — so for
// AuthPlain this returns as soon as Login is written, and for OAuth methods
// as soon as the captured code has been sent back; a rejection after that
// point surfaces as an Error frame on the caller's very next read instead.
func Authenticate(ctx context.Context, conn net.Conn, dec *wire.Decoder, login wire.Login, openURL func(string) error) error {
	if err := wire.WriteFrame(conn, wire.KindLogin, wire.EncodeLogin(login)); err != nil {
		return fmt.Errorf("sending login: %w", err)
	}

	if login.Method == wire.AuthPlain {
		return nil
	}

	frame, err := dec.ReadFrame()
	if err != nil {
		return fmt.Errorf("reading login response: %w", err)
	}

	if frame.Kind == wire.KindOauthCliRequest {
		req, err := wire.DecodeOauthCliRequest(frame.Payload)
		if err != nil {
			return fmt.Errorf("decoding oauth request: %w", err)
		}

		if openURL != nil {
			openURL(req.URL)
		} else {
			fmt.Fprintf(os.Stderr, "teleterm: open this URL to log in: %s\n", req.URL)
		}

		code, err := auth.CaptureCode(ctx)
		if err != nil {
			return fmt.Errorf("capturing oauth redirect: %w", err)
		}

		resp := wire.OauthCliResponse{Method: req.Method, Code: code}
		if err := wire.WriteFrame(conn, wire.KindOauthCliResponse, wire.EncodeOauthCliResponse(resp)); err != nil {
			return fmt.Errorf("sending oauth response: %w", err)
		}
		return nil
	}

	if frame.Kind == wire.KindError {
		ef, decErr := wire.DecodeError(frame.Payload)
		if decErr != nil {
			return fmt.Errorf("server rejected login")
		}
		return fmt.Errorf("server rejected login: %s: %s", ef.Code, ef.Message)
	}

	return nil
}
