package asyncio

import (
	"github.com/brickingsoft/asyncio/pkg/bytebuffers"
	"github.com/brickingsoft/errors"
)

var (
	ErrNotRunning     = errors.Define("asyncio: subsystem is not running")
	ErrAlreadyRunning = errors.Define("asyncio: subsystem is already running")
	ErrNilFile        = errors.Define("asyncio: file is nil")
	ErrBusy           = errors.Define("asyncio: too many operations")
	ErrAllocate       = errors.Define("asyncio: allocate destination buffer failed")
	ErrStartup        = errors.Define("asyncio: start worker failed")
)

func IsNotRunning(err error) bool {
	return errors.Is(err, ErrNotRunning)
}

func IsAlreadyRunning(err error) bool {
	return errors.Is(err, ErrAlreadyRunning)
}

func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}

func IsErrAllocate(err error) bool {
	return errors.Is(err, ErrAllocate) || bytebuffers.IsAllocateFailed(err)
}

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "asyncio"
)

const (
	errMetaOpKey    = "op"
	errMetaOpInit   = "init"
	errMetaOpSubmit = "submit"
	errMetaOpRead   = "read"
	errMetaNameKey  = "name"
)
