// Package auth implements the uniform authentication interface of §4.8:
// a method authenticates credentials and yields a display name, or fails.
package auth

import (
	"context"
	"errors"
)

// ErrAuthFailed is the sentinel wrapped by every adapter's failure path.
// Per §7, provider-specific diagnostic text is logged, never sent to the
// peer — only this generic error crosses the wire as Error{AuthFailed}.
var ErrAuthFailed = errors.New("teleterm/auth: authentication failed")

// Plain authenticates the `plain` method: the supplied name is taken
// verbatim, after rejecting the degenerate empty case.
type Plain struct{}

func (Plain) Authenticate(name string) (string, error) {
	if name == "" {
		return "", ErrAuthFailed
	}
	return name, nil
}

// OAuthRequest is the first half of the three-message OAuth dance of
// §4.4/§4.8: the server hands the client a URL to open.
type OAuthRequest struct {
	AuthURL string
}

// OAuthExchanger is implemented by a configured OAuth provider adapter. It
// is intentionally narrow — it knows nothing about the wire protocol or
// the dispatch loop, only "give me a URL" / "here's a code, who is this".
type OAuthExchanger interface {
	// RequestURL returns the URL the client should open in a browser,
	// encoding state so the provider's redirect can be correlated back to
	// this login attempt.
	RequestURL(state string) string

	// Exchange trades an authorization code for a display name by
	// completing the token exchange and querying the provider's userinfo
	// endpoint.
	Exchange(ctx context.Context, code string) (displayName string, err error)
}
