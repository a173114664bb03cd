//go:build !windows

package oplock

import "syscall"

// processIsAlive sends signal 0 to pid, which performs existence/permission
// checks without actually delivering a signal.
func processIsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil
}
