//go:build !linux && !darwin

package ptyproc

import (
	"os"
)

// ForegroundProcessName returns the name of the foreground process in the PTY.
// This is a stub for unsupported platforms - returns empty string.
func ForegroundProcessName(pty *os.File) string {
	return ""
}
