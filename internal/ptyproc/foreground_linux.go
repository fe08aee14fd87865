//go:build linux

package ptyproc

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// ForegroundProcessName returns the name of the foreground process group
// leader attached to pty, used as a session's title when the child doesn't
// set one itself. Best-effort: returns "" on any failure.
func ForegroundProcessName(pty *os.File) string {
	if pty == nil {
		return ""
	}

	pgrp, err := unix.IoctlGetInt(int(pty.Fd()), unix.TIOCGPGRP)
	if err != nil || pgrp <= 0 {
		return ""
	}

	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pgrp))
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(data))
}
