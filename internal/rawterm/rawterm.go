// Package rawterm puts the controlling terminal into raw mode for the
// streamer and watcher CLIs, grounded on the termios handling in the
// teacher's session client.
package rawterm

import (
	"os"

	"golang.org/x/sys/unix"
)

// State holds the termios settings needed to restore a terminal after
// raw mode, per *os.File so stdin and a pty master can both be managed.
type State struct {
	fd   int
	orig unix.Termios
}

// MakeRaw switches fd into raw mode and returns a State that can restore it.
func MakeRaw(fd int) (*State, error) {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, err
	}

	st := &State{fd: fd, orig: *termios}

	raw := *termios
	raw.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	raw.Cflag &^= unix.CSIZE | unix.PARENB
	raw.Cflag |= unix.CS8
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return nil, err
	}

	return st, nil
}

// Restore puts the terminal back the way MakeRaw found it.
func (s *State) Restore() error {
	if s == nil {
		return nil
	}
	return unix.IoctlSetTermios(s.fd, unix.TCSETS, &s.orig)
}

// Size returns the current window size of f (normally os.Stdout).
func Size(f *os.File) (cols, rows int, err error) {
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, err
	}
	return int(ws.Col), int(ws.Row), nil
}
