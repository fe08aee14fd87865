// Package wire implements the teleterm framed protocol: a 4-byte
// big-endian payload length, a 4-byte big-endian kind tag, then the
// payload. See §4.1 of the spec for the full message catalogue.
package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Kind identifies a frame's message type.
type Kind uint32

const (
	KindLogin Kind = iota + 1
	KindHeartbeat
	KindTerminalOutput
	KindResize
	KindListSessions
	KindSessions
	KindWatchSession
	KindUnwatchSession
	KindDisconnected
	KindError
	KindOauthCliRequest
	KindOauthCliResponse
)

func (k Kind) String() string {
	switch k {
	case KindLogin:
		return "Login"
	case KindHeartbeat:
		return "Heartbeat"
	case KindTerminalOutput:
		return "TerminalOutput"
	case KindResize:
		return "Resize"
	case KindListSessions:
		return "ListSessions"
	case KindSessions:
		return "Sessions"
	case KindWatchSession:
		return "WatchSession"
	case KindUnwatchSession:
		return "UnwatchSession"
	case KindDisconnected:
		return "Disconnected"
	case KindError:
		return "Error"
	case KindOauthCliRequest:
		return "OauthCliRequest"
	case KindOauthCliResponse:
		return "OauthCliResponse"
	default:
		return fmt.Sprintf("Kind(%d)", uint32(k))
	}
}

// DefaultMaxFrameSize is the default cap on a frame's declared payload
// length. A declared length above this fails decode with ErrOversizedFrame
// rather than allocating.
const DefaultMaxFrameSize = 16 * 1024 * 1024

// ErrOversizedFrame is returned by Decoder.ReadFrame when a frame's declared
// length exceeds the configured cap.
var ErrOversizedFrame = fmt.Errorf("teleterm/wire: frame exceeds size cap")

// Frame is one decoded protocol message.
type Frame struct {
	Kind    Kind
	Payload []byte
}

// WriteFrame encodes and writes a single frame in one Write call.
func WriteFrame(w io.Writer, kind Kind, payload []byte) error {
	buf := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(payload)))
	binary.BigEndian.PutUint32(buf[4:8], uint32(kind))
	copy(buf[8:], payload)
	_, err := w.Write(buf)
	return err
}

// Decoder restartably decodes a stream of frames. A short read leaves
// decode state in the wrapped bufio.Reader, ready to resume on the next
// Read call — satisfying the "decoding is restartable" contract of §4.1.
type Decoder struct {
	r          *bufio.Reader
	maxPayload int
}

// NewDecoder wraps r with the default size cap.
func NewDecoder(r io.Reader) *Decoder {
	return NewDecoderSize(r, DefaultMaxFrameSize)
}

// NewDecoderSize wraps r with an explicit size cap.
func NewDecoderSize(r io.Reader, maxPayload int) *Decoder {
	return &Decoder{r: bufio.NewReaderSize(r, 32*1024), maxPayload: maxPayload}
}

// ReadFrame blocks until one complete frame has been read, or returns the
// underlying read error (including io.EOF at a frame boundary).
func (d *Decoder) ReadFrame() (*Frame, error) {
	var header [8]byte
	if _, err := io.ReadFull(d.r, header[:]); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(header[0:4])
	kind := Kind(binary.BigEndian.Uint32(header[4:8]))

	if int(length) > d.maxPayload {
		return nil, ErrOversizedFrame
	}

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(d.r, payload); err != nil {
			return nil, err
		}
	}

	return &Frame{Kind: kind, Payload: payload}, nil
}
