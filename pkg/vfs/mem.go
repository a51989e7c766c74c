package vfs

import (
	"github.com/brickingsoft/asyncio/pkg/reference"
	"io"
	"sync"
)

// NewMemFile
// 以内存数据构建文件，数据不会被复制。
func NewMemFile(name string, data []byte) *MemFile {
	f := &MemFile{name: name, data: data}
	f.refs.Init(1)
	return f
}

type MemFile struct {
	mu     sync.Mutex
	name   string
	data   []byte
	pos    int64
	align  int
	closed bool
	refs   reference.Counter
}

func (f *MemFile) Name() string {
	return f.name
}

func (f *MemFile) Size() int64 {
	return int64(len(f.data))
}

func (f *MemFile) Tell() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pos
}

func (f *MemFile) Seek(offset int64) {
	f.mu.Lock()
	if offset < 0 {
		offset = 0
	}
	if n := int64(len(f.data)); offset > n {
		offset = n
	}
	f.pos = offset
	f.mu.Unlock()
}

func (f *MemFile) Read(p []byte) (n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		err = ErrClosed
		return
	}
	if f.pos >= int64(len(f.data)) {
		err = io.EOF
		return
	}
	n = copy(p, f.data[f.pos:])
	f.pos += int64(n)
	return
}

func (f *MemFile) IsEnd() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pos >= int64(len(f.data))
}

// SetAlignReqs makes the file report itself as unbuffered with the given alignment.
func (f *MemFile) SetAlignReqs(align int) {
	f.align = align
}

func (f *MemFile) AlignReqs() int {
	return f.align
}

func (f *MemFile) Grab() {
	f.refs.Grab()
}

func (f *MemFile) Drop() error {
	if f.refs.Drop() {
		f.mu.Lock()
		f.closed = true
		f.mu.Unlock()
	}
	return nil
}

func (f *MemFile) Refs() int64 {
	return f.refs.Count()
}

func (f *MemFile) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
