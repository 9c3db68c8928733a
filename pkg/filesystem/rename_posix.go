//go:build !windows

package filesystem

import "syscall"

// isCrossDeviceErrno reports whether err is the platform's cross-device link
// errno, as mirrored by locker_posix.go's direct use of syscall for locking.
func isCrossDeviceErrno(err error) bool {
	return err == syscall.EXDEV
}
