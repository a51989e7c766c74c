package asyncio

import (
	"github.com/brickingsoft/asyncio/pkg/vfs"
	"sync"
)

var (
	defaultSubsystem *Subsystem
	defaultMu        sync.RWMutex
)

// Init
// 启动进程级默认子系统。
//
// 适用于只需要一个读取调度器的程序，需要多个实例时使用 New。
func Init(options ...Option) (err error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultSubsystem != nil {
		err = ErrAlreadyRunning
		return
	}
	sys, newErr := New(options...)
	if newErr != nil {
		err = newErr
		return
	}
	if err = sys.Init(); err != nil {
		return
	}
	defaultSubsystem = sys
	return
}

// Fini
// 关闭默认子系统。
func Fini() (err error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultSubsystem == nil {
		err = ErrNotRunning
		return
	}
	err = defaultSubsystem.Fini()
	defaultSubsystem = nil
	return
}

// Default returns the process default subsystem, nil before Init.
func Default() *Subsystem {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultSubsystem
}

func Step() {
	if sys := Default(); sys != nil {
		sys.Step()
	}
}

func ReadFile(file vfs.File, name string, dst []byte, bytes int, sink Sink) (op *Operation, err error) {
	sys := Default()
	if sys == nil {
		err = ErrNotRunning
		return
	}
	op, err = sys.ReadFile(file, name, dst, bytes, sink)
	return
}

// Close releases op against the subsystem it was created by.
func Close(op *Operation) {
	if op == nil {
		return
	}
	op.sys.Close(op)
}
