package watcherui

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/teleterm/teleterm/internal/rawterm"
	"github.com/teleterm/teleterm/internal/wire"
)

const (
	colorReset  = "\x1b[0m"
	colorYellow = "\x1b[33m"
)

// renderMenu prints the session table: one letter-addressable row per
// session, idle time in humanize's approximate form, and the title column
// padded to its display width (accounting for wide runes) rather than its
// byte length. A session whose size doesn't match the watcher's own
// terminal is flagged in yellow, per §4.7.
func (c *Client) renderMenu(sessions []wire.SessionInfo) {
	myCols, myRows, err := rawterm.Size(os.Stdout)
	if err != nil {
		myCols, myRows = 0, 0
	}

	fmt.Fprintf(c.out, "\x1b[2J\x1b[H")
	if len(sessions) == 0 {
		fmt.Fprintf(c.out, "no active sessions\r\n\r\nq: quit\r\n")
		return
	}

	titleWidth := runewidth.StringWidth("title")
	for _, s := range sessions {
		if w := runewidth.StringWidth(s.Title); w > titleWidth {
			titleWidth = w
		}
	}

	fmt.Fprintf(c.out, "  %-20s %-*s %-8s %-6s %s\r\n", "name", titleWidth, "title", "size", "idle", "watchers")
	now := time.Now()
	for i, s := range sessions {
		if i > 25 {
			fmt.Fprintf(c.out, "  ... %d more\r\n", len(sessions)-i)
			break
		}

		size := fmt.Sprintf("%dx%d", s.Cols, s.Rows)
		mismatch := myCols > 0 && myRows > 0 && (uint16(myCols) != s.Cols || uint16(myRows) != s.Rows)

		title := s.Title + pad(titleWidth-runewidth.StringWidth(s.Title))
		idle := humanize.RelTime(now.Add(-time.Duration(s.IdleSeconds)*time.Second), now, "", "")

		row := fmt.Sprintf("%c %-20s %s %-8s %-6s %d", 'a'+i, s.DisplayName, title, size, idle, s.WatcherCount)
		if mismatch {
			fmt.Fprintf(c.out, "%s%s%s\r\n", colorYellow, row, colorReset)
		} else {
			fmt.Fprintf(c.out, "%s\r\n", row)
		}
	}
	fmt.Fprintf(c.out, "\r\nletter: attach  q: quit\r\n")
}

func pad(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
