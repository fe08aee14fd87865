package wire

import (
	"encoding/binary"
	"fmt"
)

// payloadWriter accumulates length-prefixed strings, raw byte blocks, and
// fixed-width integers into one contiguous buffer for a single WriteFrame
// call, mirroring the teacher's single-buffer encode style.
type payloadWriter struct {
	buf []byte
}

func (w *payloadWriter) uint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *payloadWriter) uint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *payloadWriter) uint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *payloadWriter) bytes(b []byte) {
	w.uint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *payloadWriter) str(s string) {
	w.bytes([]byte(s))
}

func (w *payloadWriter) bool(b bool) {
	if b {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// payloadReader is the mirror-image cursor over a decoded frame's payload.
type payloadReader struct {
	buf []byte
	off int
}

func newPayloadReader(buf []byte) *payloadReader {
	return &payloadReader{buf: buf}
}

func (r *payloadReader) need(n int) error {
	if len(r.buf)-r.off < n {
		return fmt.Errorf("teleterm/wire: payload truncated, need %d more bytes", n-(len(r.buf)-r.off))
	}
	return nil
}

func (r *payloadReader) uint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

func (r *payloadReader) uint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *payloadReader) uint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v, nil
}

func (r *payloadReader) bytes() ([]byte, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if err := r.need(int(n)); err != nil {
		return nil, err
	}
	b := r.buf[r.off : r.off+int(n)]
	r.off += int(n)
	return b, nil
}

func (r *payloadReader) str() (string, error) {
	b, err := r.bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *payloadReader) bool() (bool, error) {
	if err := r.need(1); err != nil {
		return false, err
	}
	v := r.buf[r.off] != 0
	r.off++
	return v, nil
}

// AuthMethod is a Login frame's authentication method tag.
type AuthMethod uint32

const (
	AuthPlain AuthMethod = iota
	AuthRecurseCenter
)

func (m AuthMethod) String() string {
	switch m {
	case AuthPlain:
		return "plain"
	case AuthRecurseCenter:
		return "recurse_center"
	default:
		return fmt.Sprintf("method(%d)", uint32(m))
	}
}

// ParseAuthMethod maps a config/CLI string to an AuthMethod.
func ParseAuthMethod(s string) (AuthMethod, bool) {
	switch s {
	case "plain":
		return AuthPlain, true
	case "recurse_center":
		return AuthRecurseCenter, true
	default:
		return 0, false
	}
}

// Login is the first frame any connection must send. Cols/Rows/Title are
// zero for a watcher; a streamer always supplies a nonzero size.
type Login struct {
	Method          AuthMethod
	Name            string // plain: display name. oauth: empty until authenticated.
	Credential      string // plain: unused. oauth: bearer token / auth code, protocol-dependent.
	ProtocolVersion string // semver string checked against the server's
	Cols            uint16
	Rows            uint16
	Title           string
}

// IsStreamer reports whether this login describes a streamer (vs. watcher).
func (l Login) IsStreamer() bool {
	return l.Cols > 0 && l.Rows > 0
}

func EncodeLogin(l Login) []byte {
	w := &payloadWriter{}
	w.uint32(uint32(l.Method))
	w.str(l.Name)
	w.str(l.Credential)
	w.str(l.ProtocolVersion)
	w.uint16(l.Cols)
	w.uint16(l.Rows)
	w.str(l.Title)
	return w.buf
}

func DecodeLogin(payload []byte) (Login, error) {
	r := newPayloadReader(payload)
	var l Login
	method, err := r.uint32()
	if err != nil {
		return l, err
	}
	l.Method = AuthMethod(method)
	if l.Name, err = r.str(); err != nil {
		return l, err
	}
	if l.Credential, err = r.str(); err != nil {
		return l, err
	}
	if l.ProtocolVersion, err = r.str(); err != nil {
		return l, err
	}
	if l.Cols, err = r.uint16(); err != nil {
		return l, err
	}
	if l.Rows, err = r.uint16(); err != nil {
		return l, err
	}
	if l.Title, err = r.str(); err != nil {
		return l, err
	}
	return l, nil
}

// Resize carries a terminal size change.
type Resize struct {
	Cols uint16
	Rows uint16
}

func EncodeResize(r Resize) []byte {
	w := &payloadWriter{}
	w.uint16(r.Cols)
	w.uint16(r.Rows)
	return w.buf
}

func DecodeResize(payload []byte) (Resize, error) {
	r := newPayloadReader(payload)
	var out Resize
	var err error
	if out.Cols, err = r.uint16(); err != nil {
		return out, err
	}
	if out.Rows, err = r.uint16(); err != nil {
		return out, err
	}
	return out, nil
}

// SessionInfo is one entry in a Sessions snapshot.
type SessionInfo struct {
	ID           string
	DisplayName  string
	Title        string
	Cols         uint16
	Rows         uint16
	IdleSeconds  uint32
	WatcherCount uint32
}

func EncodeSessions(sessions []SessionInfo) []byte {
	w := &payloadWriter{}
	w.uint32(uint32(len(sessions)))
	for _, s := range sessions {
		w.str(s.ID)
		w.str(s.DisplayName)
		w.str(s.Title)
		w.uint16(s.Cols)
		w.uint16(s.Rows)
		w.uint32(s.IdleSeconds)
		w.uint32(s.WatcherCount)
	}
	return w.buf
}

func DecodeSessions(payload []byte) ([]SessionInfo, error) {
	r := newPayloadReader(payload)
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	// n is peer-controlled; cap the preallocation so a bogus count can't
	// force a multi-gigabyte allocation before the per-field bounds checks
	// below get a chance to reject a truncated payload.
	prealloc := n
	if prealloc > 4096 {
		prealloc = 4096
	}
	out := make([]SessionInfo, 0, prealloc)
	for i := uint32(0); i < n; i++ {
		var s SessionInfo
		if s.ID, err = r.str(); err != nil {
			return nil, err
		}
		if s.DisplayName, err = r.str(); err != nil {
			return nil, err
		}
		if s.Title, err = r.str(); err != nil {
			return nil, err
		}
		if s.Cols, err = r.uint16(); err != nil {
			return nil, err
		}
		if s.Rows, err = r.uint16(); err != nil {
			return nil, err
		}
		if s.IdleSeconds, err = r.uint32(); err != nil {
			return nil, err
		}
		if s.WatcherCount, err = r.uint32(); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func EncodeWatchSession(id string) []byte {
	w := &payloadWriter{}
	w.str(id)
	return w.buf
}

func DecodeWatchSession(payload []byte) (string, error) {
	return newPayloadReader(payload).str()
}

func EncodeDisconnected(reason string) []byte {
	w := &payloadWriter{}
	w.str(reason)
	return w.buf
}

func DecodeDisconnected(payload []byte) (string, error) {
	return newPayloadReader(payload).str()
}

// ErrorCode is the taxonomy of §7.
type ErrorCode uint32

const (
	ErrUnknownKind ErrorCode = iota
	ErrMalformed
	ErrOversized
	ErrAuthMethodNotAllowed
	ErrAuthFailed
	ErrProtocolMismatch
	ErrReadTimeout
	ErrHeartbeatMissed
	ErrSlowConsumer
)

func (c ErrorCode) String() string {
	switch c {
	case ErrUnknownKind:
		return "UnknownKind"
	case ErrMalformed:
		return "Malformed"
	case ErrOversized:
		return "OversizedFrame"
	case ErrAuthMethodNotAllowed:
		return "AuthMethodNotAllowed"
	case ErrAuthFailed:
		return "AuthFailed"
	case ErrProtocolMismatch:
		return "ProtocolMismatch"
	case ErrReadTimeout:
		return "ReadTimeout"
	case ErrHeartbeatMissed:
		return "HeartbeatMissed"
	case ErrSlowConsumer:
		return "SlowConsumer"
	default:
		return fmt.Sprintf("ErrorCode(%d)", uint32(c))
	}
}

// ErrorFrame is the payload of a Kind Error frame.
type ErrorFrame struct {
	Code    ErrorCode
	Message string
}

func EncodeError(e ErrorFrame) []byte {
	w := &payloadWriter{}
	w.uint32(uint32(e.Code))
	w.str(e.Message)
	return w.buf
}

func DecodeError(payload []byte) (ErrorFrame, error) {
	r := newPayloadReader(payload)
	var e ErrorFrame
	code, err := r.uint32()
	if err != nil {
		return e, err
	}
	e.Code = ErrorCode(code)
	if e.Message, err = r.str(); err != nil {
		return e, err
	}
	return e, nil
}

// OauthCliRequest carries the URL the client should open locally.
type OauthCliRequest struct {
	Method AuthMethod
	URL    string
}

func EncodeOauthCliRequest(r OauthCliRequest) []byte {
	w := &payloadWriter{}
	w.uint32(uint32(r.Method))
	w.str(r.URL)
	return w.buf
}

func DecodeOauthCliRequest(payload []byte) (OauthCliRequest, error) {
	r := newPayloadReader(payload)
	var out OauthCliRequest
	method, err := r.uint32()
	if err != nil {
		return out, err
	}
	out.Method = AuthMethod(method)
	if out.URL, err = r.str(); err != nil {
		return out, err
	}
	return out, nil
}

// OauthCliResponse carries the authorization code captured by the client's
// loopback redirect listener.
type OauthCliResponse struct {
	Method AuthMethod
	Code   string
}

func EncodeOauthCliResponse(r OauthCliResponse) []byte {
	w := &payloadWriter{}
	w.uint32(uint32(r.Method))
	w.str(r.Code)
	return w.buf
}

func DecodeOauthCliResponse(payload []byte) (OauthCliResponse, error) {
	r := newPayloadReader(payload)
	var out OauthCliResponse
	method, err := r.uint32()
	if err != nil {
		return out, err
	}
	out.Method = AuthMethod(method)
	if out.Code, err = r.str(); err != nil {
		return out, err
	}
	return out, nil
}
