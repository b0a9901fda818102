//go:build !windows

package lock

import "syscall"

// processAlive reports whether pid is a live process, using signal 0 which
// performs permission/existence checks without actually signaling.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	return err == syscall.EPERM
}
