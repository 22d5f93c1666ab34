//go:build linux

package aio

import "syscall"

// errnoFromRes converts a negative io_uring CQE result (a negated errno, as
// the kernel encodes it) into a syscall.Errno.
func errnoFromRes(res int32) syscall.Errno {
	if res >= 0 {
		return 0
	}
	return syscall.Errno(-res)
}
