//go:build !linux

package server

import "fmt"

// DropPrivileges is unsupported on this platform; the server refuses to
// start with uid/gid configured rather than silently running with the
// launching user's privileges.
func DropPrivileges(uid, gid int) error {
	return fmt.Errorf("server: privilege dropping is not supported on this platform")
}
