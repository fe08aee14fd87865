// Package termbuf answers "what would this terminal currently display?"
// It wraps a VT100-compatible emulator (hinshun/vt10x) and adds a full
// redraw serializer used to prime late-joining watchers. See §4.2.
package termbuf

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hinshun/vt10x"
)

// Mode flag bits read off vt10x.Glyph.Mode. vt10x does not export these, so
// — same as the teacher's rendering code — they are pinned to the values
// of the vendored vt10x version; both sides of the wire must share that
// version for contents_formatted() to mean anything (see package doc).
const (
	modeReverse int16 = 1 << iota
	modeUnderline
	modeBold
	modeGfx
	modeItalic
	modeBlink
)

// Buffer is the server/streamer-side terminal state machine: feed it raw
// pty bytes, resize it on SIGWINCH, and ask it for a full-redraw byte
// sequence at any point.
type Buffer struct {
	mu sync.Mutex
	vt vt10x.Terminal
}

// New creates a buffer sized cols x rows. Any writer-directed emulator
// responses (e.g. device status reports) are discarded — teleterm is a
// read-only mirror, not an interactive terminal.
func New(cols, rows int) *Buffer {
	return &Buffer{
		vt: vt10x.New(vt10x.WithSize(cols, rows), vt10x.WithWriter(discard{})),
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// Feed advances the emulator's state by the given raw pty bytes.
func (b *Buffer) Feed(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vt.Write(data)
}

// Resize changes the emulator's grid dimensions.
func (b *Buffer) Resize(cols, rows int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vt.Resize(cols, rows)
}

// Size returns the buffer's current column/row dimensions.
func (b *Buffer) Size() (cols, rows int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.vt.Size()
}

// ContentsFormatted serializes the current screen as a byte sequence
// which, fed into a fresh Buffer of the same size, reproduces this
// screen's cell grid, cursor position, and SGR state. It always starts
// from a clean slate (clear screen, reset SGR, home cursor) so it is safe
// to use as a priming frame regardless of the receiving emulator's prior
// state.
func (b *Buffer) ContentsFormatted() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	cols, rows := b.vt.Size()

	var out strings.Builder
	out.WriteString("\x1b[0m") // reset SGR
	if b.vt.Mode()&vt10x.ModeAltScreen != 0 {
		out.WriteString("\x1b[?1049h") // switch to the alternate screen before drawing
	}
	out.WriteString("\x1b[2J") // clear screen
	out.WriteString("\x1b[H")  // home cursor

	var lastFG, lastBG vt10x.Color = vt10x.DefaultFG, vt10x.DefaultBG
	var lastMode int16
	haveAttrs := false

	for y := 0; y < rows; y++ {
		out.WriteString(fmt.Sprintf("\x1b[%d;1H", y+1))
		for x := 0; x < cols; x++ {
			glyph := b.vt.Cell(x, y)

			if !haveAttrs || glyph.FG != lastFG || glyph.BG != lastBG || glyph.Mode != lastMode {
				writeSGR(&out, glyph)
				lastFG, lastBG, lastMode = glyph.FG, glyph.BG, glyph.Mode
				haveAttrs = true
			}

			if glyph.Char == 0 {
				out.WriteRune(' ')
			} else {
				out.WriteRune(glyph.Char)
			}
		}
	}

	out.WriteString("\x1b[0m")

	cursor := b.vt.Cursor()
	out.WriteString(fmt.Sprintf("\x1b[%d;%dH", cursor.Y+1, cursor.X+1))

	if b.vt.CursorVisible() {
		out.WriteString("\x1b[?25h")
	} else {
		out.WriteString("\x1b[?25l")
	}

	return []byte(out.String())
}

func writeSGR(out *strings.Builder, glyph vt10x.Glyph) {
	params := []string{"0"}

	if glyph.Mode&modeBold != 0 {
		params = append(params, "1")
	}
	if glyph.Mode&modeUnderline != 0 {
		params = append(params, "4")
	}
	if glyph.Mode&modeBlink != 0 {
		params = append(params, "5")
	}
	if glyph.Mode&modeReverse != 0 {
		params = append(params, "7")
	}

	if glyph.FG != vt10x.DefaultFG {
		params = append(params, colorParams(int64(glyph.FG), true)...)
	}
	if glyph.BG != vt10x.DefaultBG {
		params = append(params, colorParams(int64(glyph.BG), false)...)
	}

	out.WriteString("\x1b[")
	out.WriteString(strings.Join(params, ";"))
	out.WriteString("m")
}

// colorParams renders a vt10x color (0-255 palette, or packed 24-bit RGB
// above 255) as SGR parameters for foreground (fg=true) or background.
func colorParams(c int64, fg bool) []string {
	if c > 255 {
		r := (c >> 16) & 0xFF
		g := (c >> 8) & 0xFF
		bl := c & 0xFF
		base := "38"
		if !fg {
			base = "48"
		}
		return []string{base, "2", fmt.Sprintf("%d", r), fmt.Sprintf("%d", g), fmt.Sprintf("%d", bl)}
	}
	base := "38"
	if !fg {
		base = "48"
	}
	return []string{base, "5", fmt.Sprintf("%d", c)}
}
