//go:build linux

package vfs

import (
	"golang.org/x/sys/unix"
	"os"
)

func adviseSequential(file *os.File) {
	_ = unix.Fadvise(int(file.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}

func blockSize(file *os.File) int {
	var st unix.Stat_t
	if err := unix.Fstat(int(file.Fd()), &st); err != nil {
		return unix.Getpagesize()
	}
	if st.Blksize < 1 {
		return unix.Getpagesize()
	}
	return int(st.Blksize)
}
