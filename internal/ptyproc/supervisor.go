// Package ptyproc supervises a child process attached to a pseudo-terminal:
// it forwards pty output upward as byte chunks, forwards input down, and
// turns OS resize/exit events into channel sends.
package ptyproc

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/creack/pty"
)

// Size is a terminal's column/row dimensions.
type Size struct {
	Cols int
	Rows int
}

// Supervisor owns a pty-attached child process.
type Supervisor struct {
	Cmd  *exec.Cmd
	pty  *os.File
	size Size

	output  chan []byte
	stopped chan struct{} // closed by Close(): unblocks a pending output send
	exited  chan struct{} // closed once Wait() has reaped the child

	mu        sync.Mutex
	waitErr   error
	waitOnce  sync.Once
	closeOnce sync.Once
}

// Start spawns name with args under a freshly-allocated pty sized to size,
// with env applied on top of the current process environment.
func Start(name string, args []string, env []string, size Size) (*Supervisor, error) {
	cmd := exec.Command(name, args...)
	cmd.Env = append(os.Environ(), env...)

	f, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(size.Rows),
		Cols: uint16(size.Cols),
	})
	if err != nil {
		return nil, err
	}

	s := &Supervisor{
		Cmd:     cmd,
		pty:     f,
		size:    size,
		output:  make(chan []byte, 64),
		stopped: make(chan struct{}),
		exited:  make(chan struct{}),
	}

	go s.readLoop()

	return s, nil
}

// readLoop forwards pty output as byte chunks. EIO (child's slave side
// gone) is treated as clean EOF, matching real terminal semantics: the
// kernel returns EIO rather than 0 bytes when the last pty slave closes.
func (s *Supervisor) readLoop() {
	defer close(s.output)

	buf := make([]byte, 32*1024)
	for {
		n, err := s.pty.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case s.output <- chunk:
			case <-s.stopped:
				return
			}
		}
		if err != nil {
			if isEIO(err) || errors.Is(err, io.EOF) {
				return
			}
			return
		}
	}
}

func isEIO(err error) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err == syscall.EIO
	}
	return errors.Is(err, syscall.EIO)
}

// Output returns the channel of raw pty output chunks. Closed when the pty
// reaches EOF (including EIO-as-EOF).
func (s *Supervisor) Output() <-chan []byte {
	return s.output
}

// Write forwards input bytes to the pty master (keystrokes from the real
// terminal, or network-delivered input in a future remote-control feature).
func (s *Supervisor) Write(p []byte) (int, error) {
	return s.pty.Write(p)
}

// Resize applies a new size to the pty and signals the child with SIGWINCH.
func (s *Supervisor) Resize(size Size) error {
	s.mu.Lock()
	s.size = size
	s.mu.Unlock()

	return pty.Setsize(s.pty, &pty.Winsize{
		Rows: uint16(size.Rows),
		Cols: uint16(size.Cols),
	})
}

// Size returns the last size applied to the pty.
func (s *Supervisor) Size() Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Title returns a best-effort process title for the pty's current
// foreground process group, or argv[0] of the supervised command if the
// platform lookup fails or is unsupported.
func (s *Supervisor) Title() string {
	if name := ForegroundProcessName(s.pty); name != "" {
		return name
	}
	if len(s.Cmd.Args) > 0 {
		return s.Cmd.Args[0]
	}
	return ""
}

// Wait blocks until the child exits and returns its wait error (nil on
// a clean exit 0). Safe to call from multiple goroutines; the underlying
// cmd.Wait() is only invoked once.
func (s *Supervisor) Wait() error {
	s.waitOnce.Do(func() {
		s.waitErr = s.Cmd.Wait()
		close(s.exited)
	})
	<-s.exited
	return s.waitErr
}

// Close tears down the pty master and releases any goroutine blocked
// delivering a final output chunk. Causes the child to receive SIGHUP on
// its next terminal access and the read loop to observe EOF/EIO.
func (s *Supervisor) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopped)
		err = s.pty.Close()
	})
	return err
}
