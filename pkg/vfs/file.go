package vfs

import (
	"github.com/brickingsoft/errors"
)

var (
	ErrClosed = errors.Define("vfs: file already closed")
)

func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "vfs"
	errMetaOpKey  = "op"
	errMetaOpOpen = "open"
	errMetaOpRead = "read"
)

// File is a readable, reference counted file handle.
//
// Read follows io.Reader: it returns io.EOF once the end of the stream is
// reached. AlignReqs reports the transfer alignment of unbuffered files and
// 0 for buffered ones. The last Drop releases the underlying resource.
type File interface {
	Name() string
	Size() int64
	Tell() int64
	Read(p []byte) (n int, err error)
	IsEnd() bool
	AlignReqs() int
	Grab()
	Drop() error
}
