//go:build linux

package server

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// DropPrivileges sets real and effective uid/gid (and the primary group)
// to the configured values, per §4.6. Must be called after any privileged
// setup (binding the listener, loading the TLS identity) and before
// serving any connection. A zero uid or gid is treated as "not configured"
// and skipped — the caller decides whether that's acceptable.
func DropPrivileges(uid, gid int) error {
	if gid != 0 {
		if err := unix.Setregid(gid, gid); err != nil {
			return fmt.Errorf("server: dropping to gid %d: %w", gid, err)
		}
	}
	if uid != 0 {
		if err := unix.Setreuid(uid, uid); err != nil {
			return fmt.Errorf("server: dropping to uid %d: %w", uid, err)
		}
	}
	return nil
}
