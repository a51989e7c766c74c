package vfs

import (
	"github.com/brickingsoft/asyncio/pkg/reference"
	"github.com/brickingsoft/errors"
	"io"
	"os"
	"sync"
)

type Options struct {
	Unbuffered bool
	Sequential bool
}

type Option func(options *Options) (err error)

// Unbuffered
// 按文件系统块大小对齐读取。
func Unbuffered() Option {
	return func(options *Options) (err error) {
		options.Unbuffered = true
		return
	}
}

// Sequential
// 提示内核顺序预读，仅 linux 有效。
func Sequential() Option {
	return func(options *Options) (err error) {
		options.Sequential = true
		return
	}
}

// Open opens name read-only and returns a handle holding one reference.
func Open(name string, options ...Option) (f *OSFile, err error) {
	opt := Options{}
	for _, option := range options {
		if err = option(&opt); err != nil {
			return
		}
	}
	file, openErr := os.Open(name)
	if openErr != nil {
		err = errors.New(
			"open failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpOpen),
			errors.WithWrap(openErr),
		)
		return
	}
	info, statErr := file.Stat()
	if statErr != nil {
		_ = file.Close()
		err = errors.New(
			"stat failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpOpen),
			errors.WithWrap(statErr),
		)
		return
	}
	f = &OSFile{
		file: file,
		size: info.Size(),
	}
	f.refs.Init(1)
	if opt.Sequential {
		adviseSequential(file)
	}
	if opt.Unbuffered {
		f.align = blockSize(file)
	}
	return
}

type OSFile struct {
	mu    sync.Mutex
	file  *os.File
	size  int64
	pos   int64
	eof   bool
	align int
	refs  reference.Counter
}

func (f *OSFile) Name() string {
	return f.file.Name()
}

func (f *OSFile) Size() int64 {
	return f.size
}

func (f *OSFile) Tell() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pos
}

func (f *OSFile) Read(p []byte) (n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, err = f.file.Read(p)
	f.pos += int64(n)
	if err == io.EOF {
		f.eof = true
		return
	}
	if err != nil {
		err = errors.New(
			"read failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpRead),
			errors.WithWrap(err),
		)
	}
	return
}

func (f *OSFile) IsEnd() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.eof || f.pos >= f.size
}

func (f *OSFile) AlignReqs() int {
	return f.align
}

func (f *OSFile) Grab() {
	f.refs.Grab()
}

func (f *OSFile) Drop() error {
	if f.refs.Drop() {
		return f.file.Close()
	}
	return nil
}
