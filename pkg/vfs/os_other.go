//go:build !linux

package vfs

import (
	"os"
)

func adviseSequential(_ *os.File) {}

func blockSize(_ *os.File) int {
	return os.Getpagesize()
}
