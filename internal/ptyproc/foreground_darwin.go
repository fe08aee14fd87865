//go:build darwin

package ptyproc

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"
)

// ForegroundProcessName returns the name of the foreground process group
// leader attached to pty. macOS has no /proc, so it shells out to ps.
// Best-effort: returns "" on any failure.
func ForegroundProcessName(pty *os.File) string {
	if pty == nil {
		return ""
	}

	pgrp, err := unix.IoctlGetInt(int(pty.Fd()), unix.TIOCGPGRP)
	if err != nil || pgrp <= 0 {
		return ""
	}

	out, err := exec.Command("ps", "-p", fmt.Sprintf("%d", pgrp), "-o", "comm=").Output()
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(out))
}
